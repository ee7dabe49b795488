// Package search is the web search collaborator used by the research stage.
//
// TavilyClient calls the Tavily search API through the shared http client.
// Domain profiles narrow or rerank results:
//
//	balanced  exclude noisy aggregators, prefer trusted and vendor sources
//	evidence  include only trusted sources
//	market    like balanced, also prefer product comparison sites
//
// Preferred domains are a soft preference: matching results move to the
// front in their original relative order, nothing is dropped.
package search
