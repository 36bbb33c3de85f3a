// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the user config directory in tests, where
// os.UserConfigDir ignores HOME on some platforms.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride points ConfigDir at dir.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
