package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_Defaults(t *testing.T) {
	r := NewResolverWithPaths(ResolverConfig{
		Defaults: map[string]string{"db_path": "noteflow.db"},
	}, "", "")

	cfg := r.Resolve()
	if got := cfg.Get("db_path"); got != "noteflow.db" {
		t.Errorf("db_path = %q, want %q", got, "noteflow.db")
	}
	if got := cfg.Source("db_path"); got != SourceDefault {
		t.Errorf("source = %q, want %q", got, SourceDefault)
	}
}

func TestResolver_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("NOTEFLOW_DB_PATH", "/tmp/env.db")

	r := NewResolverWithPaths(ResolverConfig{
		EnvPrefix: "NOTEFLOW_",
		Defaults:  map[string]string{"db_path": "noteflow.db"},
	}, "", "")

	got, src := r.Resolve().GetWithSource("db_path")
	if got != "/tmp/env.db" {
		t.Errorf("db_path = %q, want %q", got, "/tmp/env.db")
	}
	if src != SourceEnv {
		t.Errorf("source = %q, want %q", src, SourceEnv)
	}
}

func TestResolver_Priority(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global", "config.yaml")
	local := filepath.Join(dir, "project", ".noteflow.yaml")
	writeFile(t, global, "db_path: global.db\nmodel: opus\nlog_level: debug\n")
	writeFile(t, local, "db_path: local.db\nmodel: sonnet\n")
	t.Setenv("NOTEFLOW_MODEL", "haiku")

	r := NewResolverWithPaths(ResolverConfig{
		EnvPrefix: "NOTEFLOW_",
		Defaults:  map[string]string{"db_path": "noteflow.db", "model": "", "log_level": "info"},
	}, global, local)
	cfg := r.Resolve()

	tests := []struct {
		key  string
		want string
		src  Source
	}{
		{"db_path", "local.db", SourceLocal},
		{"model", "haiku", SourceEnv},
		{"log_level", "debug", SourceGlobal},
	}
	for _, tt := range tests {
		got, src := cfg.GetWithSource(tt.key)
		if got != tt.want || src != tt.src {
			t.Errorf("%s = %q (%s), want %q (%s)", tt.key, got, src, tt.want, tt.src)
		}
	}

	flagged := r.ResolveWithFlags(map[string]string{"db_path": "flag.db", "model": ""})
	if got, src := flagged.GetWithSource("db_path"); got != "flag.db" || src != SourceFlag {
		t.Errorf("db_path = %q (%s), want flag.db (flag)", got, src)
	}
	if got := flagged.Get("model"); got != "haiku" {
		t.Errorf("empty flag overrode model: %q", got)
	}
}

func TestResolver_TypedYAMLValues(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".noteflow.yaml")
	writeFile(t, local, "auto_confirm: true\ntimeout: 30\nnested:\n  a: b\n")

	cfg := NewResolverWithPaths(ResolverConfig{}, "", local).Resolve()
	if got := cfg.Get("auto_confirm"); got != "true" {
		t.Errorf("auto_confirm = %q, want true", got)
	}
	if got := cfg.Get("timeout"); got != "30" {
		t.Errorf("timeout = %q, want 30", got)
	}
	if got := cfg.Get("nested"); got != "" {
		t.Errorf("nested = %q, want empty", got)
	}
}

func TestResolver_InvalidYAMLWarns(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".noteflow.yaml")
	writeFile(t, local, "db_path: [unclosed\n")

	var buf bytes.Buffer
	r := NewResolverWithPaths(ResolverConfig{
		Defaults:  map[string]string{"db_path": "noteflow.db"},
		ErrWriter: &buf,
	}, "", local)

	cfg := r.Resolve()
	if got := cfg.Get("db_path"); got != "noteflow.db" {
		t.Errorf("db_path = %q, want default", got)
	}
	if len(r.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want 1", r.Warnings)
	}
	if !strings.Contains(buf.String(), "could not parse") {
		t.Errorf("warning output = %q", buf.String())
	}
}

func TestResolver_UnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".noteflow.yaml")
	writeFile(t, local, "db_path: x.db\nbogus: 1\n")

	var buf bytes.Buffer
	r := NewResolverWithPaths(ResolverConfig{
		ValidKeys: []string{"db_path"},
		ErrWriter: &buf,
	}, "", local)

	cfg := r.Resolve()
	if got := cfg.Get("bogus"); got != "" {
		t.Errorf("bogus = %q, want ignored", got)
	}
	if got := cfg.Get("db_path"); got != "x.db" {
		t.Errorf("db_path = %q, want x.db", got)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1", r.Warnings)
	}
}

func TestResolver_ProjectRootFinder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".noteflow.yaml"), "model: sonnet\n")

	r := NewResolver(ResolverConfig{
		LocalConfigName: ".noteflow.yaml",
		ProjectRootFinder: func(string) (string, error) {
			return dir, nil
		},
	})
	if r.ProjectRoot() != dir {
		t.Errorf("ProjectRoot() = %q, want %q", r.ProjectRoot(), dir)
	}
	if got, src := r.Resolve().GetWithSource("model"); got != "sonnet" || src != SourceLocal {
		t.Errorf("model = %q (%s), want sonnet (local)", got, src)
	}
}

func TestFindProjectRoot(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".noteflow.yaml"), "")

	if got := findProjectRoot(nested, ".noteflow.yaml"); got != dir {
		t.Errorf("findProjectRoot() = %q, want %q", got, dir)
	}

	gitOnly := t.TempDir()
	if err := os.MkdirAll(filepath.Join(gitOnly, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findProjectRoot(gitOnly, ".noteflow.yaml"); got != gitOnly {
		t.Errorf("findProjectRoot() = %q, want %q", got, gitOnly)
	}
}

func TestResolved_KeysSorted(t *testing.T) {
	r := NewResolverWithPaths(ResolverConfig{
		Defaults: map[string]string{"b": "1", "a": "2", "c": "3"},
	}, "", "")
	keys := r.Resolve().Keys()
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("Keys() = %v, want [a b c]", keys)
	}
}
