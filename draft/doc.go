// Package draft turns a research brief and the author's essences into an
// article draft.
//
// Stage.Generate is stateless. On the correction pass the caller supplies
// the review feedback and the previous scores, and the generator's revision
// prompt is used instead of the drafting prompt. The output is validated
// and normalized: SNS posts are keyed by the fixed channels, the x post is
// cut to 280 runes, and a missing meta description is derived from the
// body. Any failure is returned as errors.ErrGeneration.
package draft
