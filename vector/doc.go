// Package vector is the similarity search collaborator.
//
// Two named collections are addressed: CollectionKnowledgeBase holds
// internal reference material and CollectionArchive holds prior articles and
// snippets. Both implementations return matches ordered by score descending,
// with ties kept in document order.
//
// ChromaClient talks to a Chroma server and embeds queries with an Embedder
// (OpenAIEmbedder in production). MemoryIndex scores by character bigram
// overlap and needs no embeddings; it backs tests and offline runs.
package vector
