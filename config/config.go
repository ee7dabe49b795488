package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResolverConfig configures the layered resolver.
type ResolverConfig struct {
	// EnvPrefix is prepended to upper-cased key names, so "db_path" is read
	// from NOTEFLOW_DB_PATH.
	EnvPrefix string

	// GlobalConfigDir is the directory under ~/.config/ holding the global
	// file. GlobalConfigFile defaults to "config.yaml".
	GlobalConfigDir  string
	GlobalConfigFile string

	// LocalConfigName is the file looked up at the project root.
	LocalConfigName string

	Defaults map[string]string

	// ValidKeys restricts which file keys are read. Nil accepts every key.
	ValidKeys []string

	// ProjectRootFinder locates the project root. Nil walks up from the
	// working directory looking for the local config file or .git.
	ProjectRootFinder func(startDir string) (string, error)

	// ErrWriter receives warnings. Defaults to os.Stderr.
	ErrWriter io.Writer
}

func (c ResolverConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// Resolver merges configuration layers.
type Resolver struct {
	config      ResolverConfig
	globalPath  string
	localPath   string
	projectRoot string

	// Warnings collects non-fatal issues found while resolving.
	Warnings []string
}

// NewResolver creates a resolver, locating the global file under the home
// directory and the local file at the project root.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{config: cfg}
	if cfg.ErrWriter == nil {
		r.config.ErrWriter = os.Stderr
	}

	find := cfg.ProjectRootFinder
	if find == nil {
		find = func(dir string) (string, error) {
			return findProjectRoot(dir, cfg.LocalConfigName), nil
		}
	}
	if root, err := find("."); err == nil && root != "" {
		r.projectRoot = root
		if cfg.LocalConfigName != "" {
			r.localPath = filepath.Join(root, cfg.LocalConfigName)
		}
	}

	if cfg.GlobalConfigDir != "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.globalPath = filepath.Join(home, ".config", cfg.GlobalConfigDir, cfg.globalConfigFile())
		}
	}
	return r
}

// NewResolverWithPaths creates a resolver reading explicit files. Either
// path may be empty.
func NewResolverWithPaths(cfg ResolverConfig, globalPath, localPath string) *Resolver {
	r := &Resolver{
		config:     cfg,
		globalPath: globalPath,
		localPath:  localPath,
	}
	if localPath != "" {
		r.projectRoot = filepath.Dir(localPath)
	}
	if cfg.ErrWriter == nil {
		r.config.ErrWriter = os.Stderr
	}
	return r
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.config.ErrWriter != nil {
		fmt.Fprintf(r.config.ErrWriter, "Warning: %s\n", msg)
	}
}

// Resolved is the merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for key, or "" when unset.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// Source returns where key's value came from.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of every key-value pair.
func (c *Resolved) All() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Keys returns every key, sorted.
func (c *Resolved) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve merges defaults < global < local < env.
func (r *Resolver) Resolve() *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}
	for key, value := range r.config.Defaults {
		cfg.values[key] = value
		cfg.sources[key] = SourceDefault
	}
	r.applyFile(cfg, r.globalPath, SourceGlobal)
	r.applyFile(cfg, r.localPath, SourceLocal)
	r.applyEnv(cfg)
	return cfg
}

// ResolveWithFlags resolves and then applies non-empty flag values.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	cfg := r.Resolve()
	for key, value := range flags {
		if value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceFlag
		}
	}
	return cfg
}

func (r *Resolver) applyFile(cfg *Resolved, path string, src Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return // missing file is fine
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	for key, value := range parsed {
		if len(r.config.ValidKeys) > 0 && !contains(r.config.ValidKeys, key) {
			r.warn(fmt.Sprintf("%s: unknown key %q ignored", path, key))
			continue
		}
		if s := toString(value); s != "" {
			cfg.values[key] = s
			cfg.sources[key] = src
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	if r.config.EnvPrefix == "" {
		return
	}
	keys := make(map[string]bool)
	for k := range r.config.Defaults {
		keys[k] = true
	}
	for k := range cfg.values {
		keys[k] = true
	}
	for key := range keys {
		envKey := r.config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if value := os.Getenv(envKey); value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceEnv
		}
	}
}

// ProjectRoot returns the detected project root, or "".
func (r *Resolver) ProjectRoot() string {
	return r.projectRoot
}

// GlobalPath returns the global config file path.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the local config file path.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// findProjectRoot walks up from startDir to the first directory holding
// localName or .git.
func findProjectRoot(startDir, localName string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		if localName != "" {
			if _, err := os.Stat(filepath.Join(dir, localName)); err == nil {
				return dir
			}
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
