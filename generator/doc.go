// Package generator produces drafts, review judgments and outlines by
// prompting a language model.
//
// A Generator renders the embedded prompt templates (see package prompt),
// sends them through a Completer, and parses the JSON object in the answer.
// Two backends are provided:
//
//   - FlowgraphCompleter wraps a flowgraph llm.Client. NewClaudeCompleter
//     runs the Claude CLI with a model chosen per role by package task.
//   - OpenAICompleter calls the OpenAI chat completions API.
//
// Every exchange is recorded to the transcript run found in the context
// (see context.WithRunID). Failures are returned as errors.ErrGeneration.
//
// Usage:
//
//	gen := generator.New(generator.NewClaudeCompleter(".", task.NewSelector()))
//	out, err := gen.Draft(ctx, generator.DraftRequest{Keywords: "予算管理"})
package generator
