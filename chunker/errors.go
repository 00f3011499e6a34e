package chunker

import "errors"

var (
	// ErrNotInstalled is returned when a named chunking method has no
	// registered implementation.
	ErrNotInstalled = errors.New("chunker method not installed")

	// ErrCustomRequired is returned when the method is "custom" but no
	// chunker implementation was supplied.
	ErrCustomRequired = errors.New("custom chunking method requires a supplied chunker")

	// ErrTokenizerRequired is returned when a chunker is constructed
	// without a tokenizer.
	ErrTokenizerRequired = errors.New("tokenizer required")
)
