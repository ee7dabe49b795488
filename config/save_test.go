package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	nferrors "github.com/randalmurphal/noteflow/errors"
)

func readSaved(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var saved map[string]any
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return saved
}

func TestWriter_SaveGlobal(t *testing.T) {
	dir := t.TempDir()
	w := Writer{
		GlobalPath: filepath.Join(dir, ".config", "noteflow", "config.yaml"),
		ValidKeys:  []string{KeyModel, KeyAutoConfirm},
	}

	if err := w.SaveGlobal(KeyModel, "opus"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}
	if err := w.SaveGlobal(KeyAutoConfirm, "TRUE"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	saved := readSaved(t, w.GlobalPath)
	if saved[KeyModel] != "opus" {
		t.Errorf("model = %v, want opus", saved[KeyModel])
	}
	if saved[KeyAutoConfirm] != true {
		t.Errorf("auto_confirm = %v, want true", saved[KeyAutoConfirm])
	}

	info, err := os.Stat(w.GlobalPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestWriter_RejectsUnknownKey(t *testing.T) {
	w := Writer{
		GlobalPath: filepath.Join(t.TempDir(), "config.yaml"),
		ValidKeys:  Keys(),
	}
	err := w.SaveGlobal("colour", "blue")
	if !nferrors.IsInputValidation(err) {
		t.Fatalf("SaveGlobal() error = %v, want validation error", err)
	}
	if _, statErr := os.Stat(w.GlobalPath); !os.IsNotExist(statErr) {
		t.Error("file written for an unknown key")
	}
}

func TestWriter_SaveLocal(t *testing.T) {
	dir := t.TempDir()
	w := Writer{LocalPath: filepath.Join(dir, ".noteflow.yaml")}
	writeFile(t, w.LocalPath, "db_path: keep.db\n")

	if err := w.SaveLocal(KeyTavilyProfile, "evidence"); err != nil {
		t.Fatalf("SaveLocal() error = %v", err)
	}
	saved := readSaved(t, w.LocalPath)
	if saved[KeyDBPath] != "keep.db" {
		t.Errorf("db_path = %v, existing keys must survive", saved[KeyDBPath])
	}
	if saved[KeyTavilyProfile] != "evidence" {
		t.Errorf("tavily_profile = %v, want evidence", saved[KeyTavilyProfile])
	}
}

func TestWriter_Unconfigured(t *testing.T) {
	var w Writer
	if err := w.SaveGlobal(KeyModel, "x"); err == nil {
		t.Error("SaveGlobal() without a path should fail")
	}
	if err := w.SaveLocal(KeyModel, "x"); err == nil {
		t.Error("SaveLocal() without a path should fail")
	}
}

func TestWriter_DeleteGlobalKey(t *testing.T) {
	dir := t.TempDir()
	w := Writer{GlobalPath: filepath.Join(dir, "config.yaml")}

	if err := w.DeleteGlobalKey(KeyModel); err != nil {
		t.Fatalf("DeleteGlobalKey() on missing file error = %v", err)
	}

	writeFile(t, w.GlobalPath, "model: opus\ndb_path: a.db\n")
	if err := w.DeleteGlobalKey(KeyModel); err != nil {
		t.Fatalf("DeleteGlobalKey() error = %v", err)
	}
	saved := readSaved(t, w.GlobalPath)
	if _, ok := saved[KeyModel]; ok {
		t.Error("model still present")
	}
	if saved[KeyDBPath] != "a.db" {
		t.Errorf("db_path = %v, want a.db", saved[KeyDBPath])
	}
}

func TestWriterFor(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "g.yaml")
	local := filepath.Join(dir, ".noteflow.yaml")
	r := NewNoteflowResolverWithPaths(global, local)

	w := WriterFor(r)
	if w.GlobalPath != global || w.LocalPath != local {
		t.Errorf("WriterFor() = %+v", w)
	}
	if err := w.SaveLocal(KeyModel, "sonnet"); err != nil {
		t.Fatal(err)
	}
	if got := r.Resolve().Get(KeyModel); got != "sonnet" {
		t.Errorf("model = %q after save, want sonnet", got)
	}
}
