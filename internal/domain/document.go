package domain

// Document is one historical Q&A pair from the corpus. Content holds the
// historical question; Answer holds the winning response that was given for
// it. Documents are owned by the external store and treated as immutable
// while a request is in flight.
type Document struct {
	ID      string
	Content string
	Answer  string
}

// ScoredContext pairs a document with a relevance score in [0,1]. Produced
// transiently per retrieval call; never persisted.
type ScoredContext struct {
	Document Document
	Score    float64
}
