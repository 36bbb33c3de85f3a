// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdukit/sdukit/internal/issue"
	"github.com/sdukit/sdukit/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for directories and the env prefix.
	AppName = "sdukit"
	// ConfigFileName is the file looked up in the config directory.
	ConfigFileName = "config.cue"
	// LocalFileName is the file looked up in the working directory.
	LocalFileName = "sdukit.cue"
	// EnvPrefix prefixes environment overrides: SDUKIT_BUILD_OUTPUT_DIR.
	EnvPrefix = "SDUKIT"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the sdukit configuration directory under the user config
// directory ($XDG_CONFIG_HOME on Linux).
//
//nolint:revive // config.ConfigDir reads better than config.Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	local := filepath.Join(".sdukit", "repository")
	if home, err := os.UserHomeDir(); err == nil {
		local = filepath.Join(home, ".sdukit", "repository")
	}
	cacheDir := filepath.Join(".sdukit", "cache")
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, AppName)
	}

	return &Config{
		Repository: RepositoryConfig{
			Local:            local,
			CacheDir:         cacheDir,
			VersionCacheSize: 256,
			S3:               S3Config{UseSSL: true},
		},
		Build: BuildConfig{
			OutputDir:    "target",
			IncludeAll:   true,
			PollInterval: time.Second,
		},
		Combine: CombineConfig{FailOnEmpty: true},
		Log:     LogConfig{Level: "info"},
	}
}

// loadWithOptions builds a fresh viper instance per call: defaults, then at
// most one config file, then SDUKIT_* environment variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the configuration schema").
				WithSuggestion("Run 'sdukit config show' to see the defaults").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check SDUKIT_* environment variables for out-of-range values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("repository.local", d.Repository.Local)
	v.SetDefault("repository.cache_dir", d.Repository.CacheDir)
	v.SetDefault("repository.version_cache_size", d.Repository.VersionCacheSize)
	v.SetDefault("repository.s3.endpoint", d.Repository.S3.Endpoint)
	v.SetDefault("repository.s3.region", d.Repository.S3.Region)
	v.SetDefault("repository.s3.bucket", d.Repository.S3.Bucket)
	v.SetDefault("repository.s3.access_key", d.Repository.S3.AccessKey)
	v.SetDefault("repository.s3.secret_key", d.Repository.S3.SecretKey)
	v.SetDefault("repository.s3.use_ssl", d.Repository.S3.UseSSL)
	v.SetDefault("repository.s3.prefix", d.Repository.S3.Prefix)
	v.SetDefault("build.output_dir", d.Build.OutputDir)
	v.SetDefault("build.include_all", d.Build.IncludeAll)
	v.SetDefault("build.poll_interval", d.Build.PollInterval)
	v.SetDefault("combine.fail_on_empty", d.Combine.FailOnEmpty)
	v.SetDefault("log.level", d.Log.Level)
}

// locate picks the config file: an explicit path must exist; otherwise the
// working directory's sdukit.cue wins over the user config directory. An
// empty result means defaults only.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the path passed with --config").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	local := filepath.Join(opts.BaseDir, LocalFileName)
	if fileExists(local) {
		return local, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			// no user config directory; defaults still apply
			return "", nil //nolint:nilerr
		}
	}
	if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadCUEIntoViper validates path against #Config and merges it over the
// defaults. Optional fields that are absent keep their defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config", cueutil.WithFilename(path))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the defaults to the user config directory unless
// a config file is already there. It returns the file path.
func CreateDefaultConfig() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config file. Secrets are never written.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// sdukit configuration\n\n")

	r := cfg.Repository
	sb.WriteString("repository: {\n")
	fmt.Fprintf(&sb, "\tlocal: %q\n", r.Local)
	fmt.Fprintf(&sb, "\tcache_dir: %q\n", r.CacheDir)
	fmt.Fprintf(&sb, "\tversion_cache_size: %d\n", r.VersionCacheSize)
	if r.S3Enabled() {
		sb.WriteString("\ts3: {\n")
		fmt.Fprintf(&sb, "\t\tendpoint: %q\n", r.S3.Endpoint)
		if r.S3.Region != "" {
			fmt.Fprintf(&sb, "\t\tregion: %q\n", r.S3.Region)
		}
		fmt.Fprintf(&sb, "\t\tbucket: %q\n", r.S3.Bucket)
		fmt.Fprintf(&sb, "\t\tuse_ssl: %v\n", r.S3.UseSSL)
		if r.S3.Prefix != "" {
			fmt.Fprintf(&sb, "\t\tprefix: %q\n", r.S3.Prefix)
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\toutput_dir: %q\n", cfg.Build.OutputDir)
	fmt.Fprintf(&sb, "\tinclude_all: %v\n", cfg.Build.IncludeAll)
	fmt.Fprintf(&sb, "\tpoll_interval: %q\n", cfg.Build.PollInterval.String())
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\ncombine: fail_on_empty: %v\n", cfg.Combine.FailOnEmpty)
	if cfg.Log.Level != "" {
		fmt.Fprintf(&sb, "\nlog: level: %q\n", cfg.Log.Level)
	}
	return sb.String()
}
