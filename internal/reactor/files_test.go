// SPDX-License-Identifier: MPL-2.0

package reactor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdukit/sdukit/pkg/sdumod"
)

func newWorkspace(t *testing.T) *sdumod.Workspace {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"sdumod.cue": `group: "com.acme", artifact: "product", version: "1.0", packaging: "pom"
modules: ["base", "edge"]`,
		"base/sdumod.cue": `group: "com.acme", artifact: "base", version: "1.0", packaging: "dar"`,
		"edge/sdumod.cue": `group: "com.acme", artifact: "edge", version: "1.0", packaging: "feature"`,
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ws, err := sdumod.LoadWorkspace(root)
	if err != nil {
		t.Fatalf("LoadWorkspace() error: %v", err)
	}
	return ws
}

func newFiles(t *testing.T) *Files {
	t.Helper()
	f, err := NewFiles(FilesConfig{Workspace: newWorkspace(t), PollInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFilesLookup(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, ok := f.Lookup("com.acme", "edge", "1.0")
	if !ok {
		t.Fatal("Lookup(edge) failed")
	}
	if !strings.HasSuffix(filepath.ToSlash(m.OutputFile), "edge/target/edge-1.0.feature") {
		t.Errorf("OutputFile = %s", m.OutputFile)
	}
	if len(f.Modules()) != 3 {
		t.Errorf("len(Modules()) = %d, want 3", len(f.Modules()))
	}
}

func TestFilesAwaitReadyLater(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "base", "1.0")
	ch := f.Await(context.Background(), m)

	// builds commonly emit .jar; it counts as output
	jar := filepath.Join(filepath.Dir(m.OutputFile), "base-1.0.jar")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(filepath.Dir(jar), 0o755)
		_ = os.WriteFile(jar, []byte("profile"), 0o644)
	}()

	c := receive(t, ch)
	if c.State != Ready || c.File != jar {
		t.Errorf("completion = %+v, want ready with %s", c, jar)
	}
}

func TestFilesAwaitSettled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, f *Files, m *Module)
		want  State
	}{
		{
			name:  "output present",
			setup: func(t *testing.T, _ *Files, m *Module) { writeFile(t, m.OutputFile, "x") },
			want:  Ready,
		},
		{
			name: "module failed",
			setup: func(t *testing.T, f *Files, m *Module) {
				if err := f.MarkFailed(m, "tests failed"); err != nil {
					t.Error(err)
				}
			},
			want: Failed,
		},
		{
			name: "session aborted",
			setup: func(t *testing.T, f *Files, m *Module) {
				writeFile(t, m.OutputFile, "x")
				if err := f.Abort("upstream failure"); err != nil {
					t.Error(err)
				}
			},
			want: Aborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFiles(t)
			m, _ := f.Lookup("com.acme", "edge", "1.0")
			tt.setup(t, f, m)
			if c := receive(t, f.Await(context.Background(), m)); c.State != tt.want {
				t.Errorf("state = %v (%v), want %v", c.State, c.Err, tt.want)
			}
		})
	}
}

func TestFilesAwaitFailureWhileWaiting(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "edge", "1.0")
	ch := f.Await(context.Background(), m)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = f.MarkFailed(m, "boom")
	}()
	c := receive(t, ch)
	if c.State != Failed || !strings.Contains(c.Err.Error(), "boom") {
		t.Errorf("completion = %+v", c)
	}
}

func TestFilesAwaitCancelled(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "edge", "1.0")
	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Await(ctx, m)
	cancel()
	if c := receive(t, ch); c.State != Aborted {
		t.Errorf("state = %v, want aborted", c.State)
	}
}

func TestFilesAggregateIsReady(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "product", "1.0")
	c := receive(t, f.Await(context.Background(), m))
	if c.State != Ready || filepath.Base(c.File) != sdumod.DescriptorFile {
		t.Errorf("completion = %+v", c)
	}
}

func TestFilesAwaitLeavesWorkspaceUntouched(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "edge", "1.0")
	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Await(ctx, m)
	time.Sleep(60 * time.Millisecond)
	cancel()
	receive(t, ch)

	if _, err := os.Stat(filepath.Join(f.root, SessionDir)); !os.IsNotExist(err) {
		t.Errorf("waiting should not create %s, stat err = %v", SessionDir, err)
	}
}

func TestFilesAwaitAbortWhileWaiting(t *testing.T) {
	t.Parallel()

	f := newFiles(t)
	m, _ := f.Lookup("com.acme", "edge", "1.0")
	ch := f.Await(context.Background(), m)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = f.Abort("stopped by user")
	}()
	c := receive(t, ch)
	if c.State != Aborted || !strings.Contains(c.Err.Error(), "stopped by user") {
		t.Errorf("completion = %+v", c)
	}
}
