// Package research builds the brief an article is drafted from.
//
// Stage.Analyze runs the web search and the knowledge collection queries
// concurrently with errgroup. Either failing fails the stage with
// errors.ErrExternalLookup; there is no partial brief. Competitors keep the
// searcher's ranking and internal references are ordered by score.
//
// An optional Outliner proposes content gaps and the section outline. When
// it is absent or fails, FallbackOutline is used.
package research
