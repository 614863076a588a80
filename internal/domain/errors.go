package domain

import "errors"

var (
	// ErrCorpusUnavailable signals that the corpus store cannot be reached.
	ErrCorpusUnavailable = errors.New("corpus store unavailable")
	// ErrRetrievalUnavailable signals that both retrieval branches failed.
	ErrRetrievalUnavailable = errors.New("all retrieval branches unavailable")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a chat completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
)
