package config

// Source indicates where a configuration value came from.
type Source string

// Configuration sources, lowest precedence first.
const (
	SourceDefault Source = "default"
	// SourceGlobal is ~/.config/noteflow/config.yaml.
	SourceGlobal Source = "global"
	// SourceLocal is .noteflow.yaml at the project root.
	SourceLocal Source = "local"
	SourceEnv   Source = "env"
	SourceFlag  Source = "flag"
)
