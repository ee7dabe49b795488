// Package config resolves noteflow settings from layered sources.
//
// Precedence, lowest first:
//  1. Built-in defaults
//  2. Global config (~/.config/noteflow/config.yaml)
//  3. Local config (.noteflow.yaml at the project root)
//  4. NOTEFLOW_* environment variables
//  5. Command-line flags
//
// Usage:
//
//	r := config.NewNoteflowResolver()
//	resolved := r.Resolve()
//	settings, warnings, err := config.LoadSettings(resolved)
//
// Every resolved value remembers its Source, which `noteflow config list`
// prints. Writer persists single keys back into either file.
package config
