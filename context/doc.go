// Package context provides dependency injection for workflow services.
//
// Context injection functions:
//   - WithTranscript/Transcript: transcript manager
//   - WithRunID/RunID: the transcript run the current stage records into
//   - WithArtifact/Artifact: artifact manager
//   - WithPrompt/Prompt: prompt loader
//
// Example usage:
//
//	services, err := context.NewServices(context.Config{ProjectDir: "."})
//	ctx := services.InjectAll(ctx)
//
//	// Later, inside a stage
//	ctx = context.WithRunID(ctx, runID)
//	recorded, err := context.Record(ctx, exchange)
package context
