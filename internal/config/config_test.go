// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdukit/sdukit/internal/issue"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Build.OutputDir != "target" {
		t.Errorf("Build.OutputDir = %q, want target", cfg.Build.OutputDir)
	}
	if !cfg.Build.IncludeAll || !cfg.Combine.FailOnEmpty {
		t.Error("IncludeAll and FailOnEmpty should default to true")
	}
	if cfg.Build.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Build.PollInterval)
	}
	if cfg.Repository.S3Enabled() {
		t.Error("S3 should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{
		BaseDir:       t.TempDir(),
		ConfigDirPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if cfg.Build.OutputDir != "target" {
		t.Errorf("Build.OutputDir = %q, want target", cfg.Build.OutputDir)
	}
}

func TestLoad_LocalFileWinsOverConfigDir(t *testing.T) {
	t.Parallel()

	base, cfgDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(cfgDir, ConfigFileName), `build: output_dir: "from-config-dir"`)
	local := writeFile(t, filepath.Join(base, LocalFileName), `
build: {
	output_dir:    "out"
	poll_interval: "250ms"
}
combine: fail_on_empty: false
repository: s3: {
	endpoint: "localhost:9000"
	bucket:   "artifacts"
}
`)

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: base, ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != local {
		t.Errorf("path = %q, want %q", path, local)
	}
	if cfg.Build.OutputDir != "out" {
		t.Errorf("Build.OutputDir = %q, want out", cfg.Build.OutputDir)
	}
	if cfg.Build.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.Build.PollInterval)
	}
	if cfg.Combine.FailOnEmpty {
		t.Error("FailOnEmpty should be overridden to false")
	}
	if !cfg.Build.IncludeAll {
		t.Error("IncludeAll should keep its default")
	}
	if !cfg.Repository.S3Enabled() || !cfg.Repository.S3.UseSSL {
		t.Errorf("S3 = %+v, want enabled with default use_ssl", cfg.Repository.S3)
	}
}

func TestLoad_ConfigDir(t *testing.T) {
	t.Parallel()

	cfgDir := t.TempDir()
	want := writeFile(t, filepath.Join(cfgDir, ConfigFileName), `log: level: "debug"`)

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: t.TempDir(), ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != want || cfg.Log.Level != "debug" {
		t.Errorf("Load() = level %q from %q, want debug from %q", cfg.Log.Level, path, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"bad level", `log: level: "loud"`, "log.level"},
		{"bad duration", `build: poll_interval: "soon"`, "build.poll_interval"},
		{"negative cache", `repository: version_cache_size: -1`, "repository.version_cache_size"},
		{"syntax", `build: {`, ""},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".cue"), tt.content)
			_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatalf("case %d: Load() succeeded, want error", i)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId || ae.Resource != path {
				t.Errorf("ActionableError = %+v", ae)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want not found", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

// Not parallel: uses t.Setenv.
func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, LocalFileName), `build: output_dir: "from-file"`)
	t.Setenv("SDUKIT_BUILD_OUTPUT_DIR", "from-env")
	t.Setenv("SDUKIT_REPOSITORY_S3_BUCKET", "env-bucket")

	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: base, ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Build.OutputDir != "from-env" {
		t.Errorf("Build.OutputDir = %q, want from-env", cfg.Build.OutputDir)
	}
	if cfg.Repository.S3.Bucket != "env-bucket" {
		t.Errorf("S3.Bucket = %q, want env-bucket", cfg.Repository.S3.Bucket)
	}
}

// Not parallel: uses t.Setenv.
func TestLoad_EnvironmentValidated(t *testing.T) {
	t.Setenv("SDUKIT_LOG_LEVEL", "chatty")

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: t.TempDir(), ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestGenerateCUERoundTrips(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Build.OutputDir = "dist"
	cfg.Build.PollInterval = 1500 * time.Millisecond
	cfg.Repository.S3 = S3Config{Endpoint: "s3.local", Bucket: "b", Prefix: "releases", SecretKey: "hunter2"}

	text := GenerateCUE(cfg)
	if strings.Contains(text, "hunter2") {
		t.Error("GenerateCUE leaked the secret key")
	}
	path := writeFile(t, filepath.Join(t.TempDir(), "generated.cue"), text)

	got, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("loading generated file: %v\n%s", err, text)
	}
	if got.Build.OutputDir != "dist" || got.Build.PollInterval != cfg.Build.PollInterval {
		t.Errorf("build = %+v", got.Build)
	}
	if got.Repository.S3.Prefix != "releases" || got.Repository.S3.UseSSL {
		t.Errorf("s3 = %+v", got.Repository.S3)
	}
}

// Not parallel: swaps the package-level config directory override.
func TestCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sdukit")
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if path != filepath.Join(dir, ConfigFileName) {
		t.Errorf("path = %q", path)
	}

	writeFile(t, path, `build: output_dir: "kept"`)
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("CreateDefaultConfig overwrote an existing file")
	}
}
