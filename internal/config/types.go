// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// LogLevels lists the accepted values of log.level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the effective sdukit configuration.
	Config struct {
		Repository RepositoryConfig `json:"repository" mapstructure:"repository"`
		Build      BuildConfig      `json:"build" mapstructure:"build"`
		Combine    CombineConfig    `json:"combine" mapstructure:"combine"`
		Log        LogConfig        `json:"log" mapstructure:"log"`
	}

	// RepositoryConfig locates published artifacts.
	RepositoryConfig struct {
		// Local is the root of the local repository layout.
		Local string `json:"local" mapstructure:"local"`
		// CacheDir receives objects downloaded from S3.
		CacheDir string `json:"cache_dir" mapstructure:"cache_dir"`
		// VersionCacheSize bounds the in-memory version listing cache. Zero
		// disables caching.
		VersionCacheSize int      `json:"version_cache_size" mapstructure:"version_cache_size"`
		S3               S3Config `json:"s3" mapstructure:"s3"`
	}

	// S3Config configures the optional S3-compatible remote repository. It is
	// enabled when Endpoint and Bucket are both set.
	S3Config struct {
		Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
		Region    string `json:"region" mapstructure:"region"`
		Bucket    string `json:"bucket" mapstructure:"bucket"`
		AccessKey string `json:"access_key" mapstructure:"access_key"`
		SecretKey string `json:"secret_key" mapstructure:"secret_key"`
		UseSSL    bool   `json:"use_ssl" mapstructure:"use_ssl"`
		Prefix    string `json:"prefix" mapstructure:"prefix"`
	}

	// BuildConfig controls assembly.
	BuildConfig struct {
		// OutputDir is relative to the workspace root unless absolute.
		OutputDir  string `json:"output_dir" mapstructure:"output_dir"`
		IncludeAll bool   `json:"include_all" mapstructure:"include_all"`
		// PollInterval is the fallback re-check period while waiting on a
		// sibling module.
		PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	}

	CombineConfig struct {
		FailOnEmpty bool `json:"fail_on_empty" mapstructure:"fail_on_empty"`
	}

	LogConfig struct {
		Level string `json:"level" mapstructure:"level"`
	}

	// InvalidConfigError reports a value that passed decoding but is out of
	// range, typically one set through the environment.
	InvalidConfigError struct {
		Field  string
		Value  any
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidConfig for errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// S3Enabled reports whether the S3 repository is configured.
func (r RepositoryConfig) S3Enabled() bool {
	return r.S3.Endpoint != "" && r.S3.Bucket != ""
}

// Validate checks the constraints the schema cannot enforce on values that
// bypass the config file.
func (c *Config) Validate() error {
	var errs []error
	if c.Log.Level != "" && !slices.Contains(LogLevels, c.Log.Level) {
		errs = append(errs, &InvalidConfigError{Field: "log.level", Value: c.Log.Level, Reason: "must be one of debug, info, warn or error"})
	}
	if c.Build.PollInterval <= 0 {
		errs = append(errs, &InvalidConfigError{Field: "build.poll_interval", Value: c.Build.PollInterval, Reason: "must be positive"})
	}
	if c.Repository.VersionCacheSize < 0 {
		errs = append(errs, &InvalidConfigError{Field: "repository.version_cache_size", Value: c.Repository.VersionCacheSize, Reason: "must not be negative"})
	}
	if c.Build.OutputDir == "" {
		errs = append(errs, &InvalidConfigError{Field: "build.output_dir", Value: `""`, Reason: "must not be empty"})
	}
	return errors.Join(errs...)
}
