package engine

import "errors"

var (
	// ErrChunkerRequired is returned when no chunker is provided.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrAIProviderRequired is returned when no AI provider is provided.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrStoreRequired is returned when no vector store is provided.
	ErrStoreRequired = errors.New("vector store is required")
)
