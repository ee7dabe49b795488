// Package scoring implements the review gate.
//
// Evaluate turns a reviewer's raw judgment into an article.ReviewResult. It
// does not reason about content; it enforces the rubric:
//
//	target_appeal      0-30
//	logical_structure  0-40
//	seo_fitness        0-30
//
// The total is always the sum of the three, the article passes at 80 or
// above, and feedback is rendered exactly when it fails. Out-of-range input
// is reported as errors.ErrScoringContract and never clamped.
//
// QuickCheck is an advisory heuristic that needs no reviewer at all.
package scoring
