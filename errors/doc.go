// Package errors defines the workflow error taxonomy and CLI error patterns.
//
// Sentinel errors, one per failure class:
//   - ErrInputValidation: missing or malformed keywords or essences
//   - ErrExternalLookup: web search or similarity search failed
//   - ErrGeneration: drafting or scoring generator failed
//   - ErrScoringContract: sub-scores out of bounds or not summing to the total
//   - ErrPersistence: save or load failed
//
// StageError attaches the phase, article id and operation to a failure and
// unwraps to both its kind sentinel and the cause:
//
//	err := errors.NewStageError(errors.KindGeneration, "drafting", id, "draft", cause)
//	errors.Is(err, errors.ErrGeneration) // true
//	errors.Is(err, cause)                // true
//
// ForCLI maps any of the above onto a CLIError with a suggestion:
//
//	return errors.ForCLI(err, errors.WithArticleID(id))
package errors
