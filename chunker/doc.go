// Package chunker splits raw text into token-bounded pieces.
//
// The Recursive implementation walks an ordered separator hierarchy
// (paragraph, line, sentence enders, clause punctuation, space) and falls
// back to raw token windows when no separator applies. Pieces are merged
// back up to the chunk size, with a configurable token overlap carried
// between consecutive chunks.
//
// Chunkers are pure: no I/O, no shared state. Named methods are resolved
// through an explicit registry so callers can swap implementations.
package chunker
