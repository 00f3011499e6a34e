package chunker

import "fmt"

// Built-in chunking method names.
const (
	MethodRecursive = "recursive"
	MethodCustom    = "custom"
)

// Factory builds a chunker for a named method.
type Factory func() (Chunker, error)

// registry maps method names to factories. Explicit and constructed at
// startup; no runtime dynamic loading.
var registry = map[string]Factory{
	MethodRecursive: func() (Chunker, error) {
		tok, err := NewTiktokenTokenizer(DefaultEncoding)
		if err != nil {
			return nil, err
		}
		return NewRecursive(tok)
	},
}

// Register adds a named chunking method. Registration is expected at
// startup, before any Resolve call; later registrations race with Resolve.
func Register(method string, factory Factory) {
	registry[method] = factory
}

// Resolve maps a named method to a chunker implementation. The empty
// method resolves to the recursive default. Method "custom" requires a
// supplied chunker; unknown names return ErrNotInstalled.
func Resolve(method string, custom Chunker) (Chunker, error) {
	if method == "" {
		method = MethodRecursive
	}
	if method == MethodCustom {
		if custom == nil {
			return nil, ErrCustomRequired
		}
		return custom, nil
	}

	factory, ok := registry[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInstalled, method)
	}
	return factory()
}
