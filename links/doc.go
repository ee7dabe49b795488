// Package links suggests internal links from a draft to earlier articles.
//
// Keywords come from the draft's top-level headings and short bold
// phrases. Stored articles are scored by where each keyword appears: the
// title counts three, the SEO keywords two, the opening of the draft one.
// Matches from the archive similarity collection are merged in when an
// index is available.
package links
