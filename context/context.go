package context

import (
	"context"

	"github.com/randalmurphal/noteflow/artifact"
	"github.com/randalmurphal/noteflow/prompt"
	"github.com/randalmurphal/noteflow/transcript"
)

// =============================================================================
// Context Injection Helpers
// =============================================================================
// These helpers let the engine hand services and the current transcript run
// to stages and the generator without widening every signature.

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

const (
	transcriptServiceKey serviceContextKey = "noteflow.transcripts"
	runIDKey             serviceContextKey = "noteflow.run_id"
	artifactServiceKey   serviceContextKey = "noteflow.artifacts"
	promptServiceKey     serviceContextKey = "noteflow.prompts"
)

// WithTranscript adds a transcript manager to the context
func WithTranscript(ctx context.Context, mgr transcript.Manager) context.Context {
	return context.WithValue(ctx, transcriptServiceKey, mgr)
}

// Transcript extracts transcript manager from context
func Transcript(ctx context.Context) transcript.Manager {
	if mgr, ok := ctx.Value(transcriptServiceKey).(transcript.Manager); ok {
		return mgr
	}
	return nil
}

// WithRunID marks the transcript run that generator exchanges belong to.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the current transcript run, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Record writes ex to the current run when both a transcript manager and a
// run id are present. It reports whether anything was recorded.
func Record(ctx context.Context, ex transcript.Exchange) (bool, error) {
	mgr := Transcript(ctx)
	runID := RunID(ctx)
	if mgr == nil || runID == "" {
		return false, nil
	}
	return true, transcript.RecordExchange(mgr, runID, ex)
}

// WithArtifact adds an artifact manager to the context
func WithArtifact(ctx context.Context, mgr *artifact.Manager) context.Context {
	return context.WithValue(ctx, artifactServiceKey, mgr)
}

// Artifact extracts artifact manager from context
func Artifact(ctx context.Context) *artifact.Manager {
	if mgr, ok := ctx.Value(artifactServiceKey).(*artifact.Manager); ok {
		return mgr
	}
	return nil
}

// WithPrompt adds a prompt loader to the context
func WithPrompt(ctx context.Context, loader *prompt.Loader) context.Context {
	return context.WithValue(ctx, promptServiceKey, loader)
}

// Prompt extracts prompt loader from context
func Prompt(ctx context.Context) *prompt.Loader {
	if loader, ok := ctx.Value(promptServiceKey).(*prompt.Loader); ok {
		return loader
	}
	return nil
}

// MustPrompt extracts prompt loader or panics
func MustPrompt(ctx context.Context) *prompt.Loader {
	loader := Prompt(ctx)
	if loader == nil {
		panic("noteflow/context: prompt.Loader not found in context")
	}
	return loader
}
