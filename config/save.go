package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	nferrors "github.com/randalmurphal/noteflow/errors"
)

// Writer persists single keys into the global or local file.
type Writer struct {
	GlobalPath string
	LocalPath  string
	ValidKeys  []string
}

// WriterFor returns a writer over the files r reads. Without a project root
// the local file is the working directory's.
func WriterFor(r *Resolver) Writer {
	local := r.LocalPath()
	if local == "" && r.config.LocalConfigName != "" {
		local = r.config.LocalConfigName
	}
	return Writer{
		GlobalPath: r.GlobalPath(),
		LocalPath:  local,
		ValidKeys:  r.config.ValidKeys,
	}
}

// SaveGlobal writes key to the global file.
func (w Writer) SaveGlobal(key, value string) error {
	if w.GlobalPath == "" {
		return fmt.Errorf("global config path not configured")
	}
	return w.save(w.GlobalPath, key, value, 0o600)
}

// SaveLocal writes key to the project's local file.
func (w Writer) SaveLocal(key, value string) error {
	if w.LocalPath == "" {
		return fmt.Errorf("local config path not configured")
	}
	// Shared with the project, so readable.
	return w.save(w.LocalPath, key, value, 0o644) //nolint:gosec
}

// DeleteGlobalKey removes key from the global file. A missing file is not
// an error.
func (w Writer) DeleteGlobalKey(key string) error {
	if w.GlobalPath == "" {
		return fmt.Errorf("global config path not configured")
	}
	existing, err := readYAML(w.GlobalPath)
	if err != nil {
		return err
	}
	if _, ok := existing[key]; !ok {
		return nil
	}
	delete(existing, key)
	return writeYAML(w.GlobalPath, existing, 0o600)
}

func (w Writer) save(path, key, value string, perm os.FileMode) error {
	if len(w.ValidKeys) > 0 && !contains(w.ValidKeys, key) {
		return nferrors.Validation("key", "unknown config key %q (valid: %s)", key, strings.Join(w.ValidKeys, ", "))
	}
	existing, err := readYAML(path)
	if err != nil {
		return err
	}
	existing[key] = parseValue(value)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return writeYAML(path, existing, perm)
}

func readYAML(path string) (map[string]any, error) {
	out := make(map[string]any)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

func writeYAML(path string, v map[string]any, perm os.FileMode) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// parseValue keeps booleans typed in the YAML file.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
