// SPDX-License-Identifier: MPL-2.0

// Package config loads sdukit configuration with Viper, using CUE as the file
// format.
//
// Values are layered: built-in defaults, then one config file, then SDUKIT_*
// environment variables (SDUKIT_BUILD_OUTPUT_DIR overrides build.output_dir).
// The file is the one passed explicitly, else sdukit.cue in the working
// directory, else config.cue in the user config directory. Files are validated
// against the embedded schema in config_schema.cue before they are merged.
package config
