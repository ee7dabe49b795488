// Package review scores a draft with the scoring role of the generator and
// applies the rubric in package scoring.
//
// A heuristic scoring.QuickCheck runs first. Its findings are logged and
// never affect the outcome.
package review
