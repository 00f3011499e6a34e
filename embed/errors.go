package embed

import "errors"

var (
	// ErrProviderRequired indicates construction without an embedding provider.
	ErrProviderRequired = errors.New("embedding provider is required")

	// ErrNoImageSupport indicates an image unit was submitted but the
	// provider does not implement ai.ImageEmbedder. This is a fatal
	// configuration error, not a skippable warning.
	ErrNoImageSupport = errors.New("provider does not support image embedding")

	// ErrCountMismatch indicates a batch call returned a different number
	// of vectors than inputs. This is a provider contract violation and
	// always fatal.
	ErrCountMismatch = errors.New("batch embedding count mismatch")

	// ErrMissingVector indicates a unit ended the run without a vector.
	// Should be unreachable; it guards internal consistency.
	ErrMissingVector = errors.New("embedding missing for unit")
)
