// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/contexture/core"
)

// Chunker splits text into token-bounded pieces.
// Implementations must be pure: no I/O, safe for concurrent use.
type Chunker interface {
	// Chunk splits content according to the options. Empty or
	// whitespace-only content yields an empty result. Returned chunks
	// carry contiguous indexes 0..N-1 and accurate token counts.
	Chunk(content string, opts core.ChunkingOptions) ([]core.ChunkText, error)
}

// Recursive is a token-based recursive splitter. It walks the separator
// hierarchy coarsest-first, splits on the first separator present, recurses
// into oversized pieces with the remaining separators, and force-splits by
// raw token windows when no separator applies. Small pieces are merged back
// up to the chunk size with a token overlap carried between chunks.
type Recursive struct {
	tok Tokenizer
}

var _ Chunker = (*Recursive)(nil)

// NewRecursive creates a recursive chunker over the given tokenizer.
func NewRecursive(tok Tokenizer) (*Recursive, error) {
	if tok == nil {
		return nil, ErrTokenizerRequired
	}
	return &Recursive{tok: tok}, nil
}

// Chunk splits content into token-bounded chunks.
func (r *Recursive) Chunk(content string, opts core.ChunkingOptions) ([]core.ChunkText, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	if count := r.count(content); count <= opts.ChunkSize {
		return []core.ChunkText{{Index: 0, Content: content, TokenCount: count}}, nil
	}

	pieces := r.split(content, opts.ChunkSize, opts.ChunkOverlap, opts.Separators)
	texts := r.merge(pieces, opts)

	chunks := make([]core.ChunkText, len(texts))
	for i, text := range texts {
		chunks[i] = core.ChunkText{Index: i, Content: text, TokenCount: r.count(text)}
	}
	return chunks, nil
}

func (r *Recursive) count(text string) int {
	return len(r.tok.Encode(text))
}

// split breaks text into pieces of at most chunkSize tokens. It picks the
// first separator that occurs in the text, keeps the separator attached to
// the end of each piece, and recurses into oversized pieces with the
// remaining (finer) separators. The empty separator and separator
// exhaustion both fall through to raw token windows.
func (r *Recursive) split(text string, chunkSize, overlap int, separators []string) []string {
	if r.count(text) <= chunkSize {
		return []string{text}
	}

	for i, sep := range separators {
		if sep == "" {
			break
		}
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, part := range splitAfter(text, sep) {
			if r.count(part) <= chunkSize {
				out = append(out, part)
			} else {
				out = append(out, r.split(part, chunkSize, overlap, separators[i+1:])...)
			}
		}
		return out
	}

	return r.forceSplit(text, chunkSize, overlap)
}

// forceSplit cuts text into raw token windows of chunkSize - overlap
// tokens. The merge stage seeds each chunk with the trailing overlap of
// the previous one, so the resulting chunk stream advances by exactly
// chunkSize - overlap new tokens per chunk.
func (r *Recursive) forceSplit(text string, chunkSize, overlap int) []string {
	tokens := r.tok.Encode(text)
	stride := chunkSize - overlap
	if stride < 1 {
		stride = chunkSize
	}

	var out []string
	for start := 0; start < len(tokens); start += stride {
		end := start + stride
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, r.tok.Decode(tokens[start:end]))
	}
	return out
}

// merge accumulates pieces into running chunks. A chunk is closed when the
// next piece would push it past the chunk size; chunks below the minimum
// size are folded into the previous chunk instead of being emitted. Each
// new chunk is seeded with the trailing overlap tokens of the one just
// closed.
func (r *Recursive) merge(pieces []string, opts core.ChunkingOptions) []string {
	var out []string
	var cur strings.Builder
	curTokens := 0
	fresh := 0 // pieces appended since the last close

	closeCur := func() {
		if fresh == 0 {
			return
		}
		text := cur.String()
		if r.count(text) < opts.MinChunkSize && len(out) > 0 {
			out[len(out)-1] += text
		} else {
			out = append(out, text)
		}

		seed := r.overlapText(text, opts.ChunkOverlap)
		cur.Reset()
		cur.WriteString(seed)
		curTokens = 0
		if seed != "" {
			curTokens = r.count(seed)
		}
		fresh = 0
	}

	for _, piece := range pieces {
		pieceTokens := r.count(piece)
		if fresh > 0 && curTokens+pieceTokens > opts.ChunkSize {
			closeCur()
		}
		// A near-chunk-size piece on top of an overlap seed would break
		// the token bound; the seed gives way to the piece.
		if fresh == 0 && curTokens > 0 && curTokens+pieceTokens > opts.ChunkSize {
			cur.Reset()
			curTokens = 0
		}
		cur.WriteString(piece)
		curTokens += pieceTokens
		fresh++
	}
	closeCur()

	return out
}

// overlapText returns the text of the last overlap tokens. Decoding a
// token slice can land on a partial multi-byte boundary; in that case the
// overlap falls back to a character-count estimate.
func (r *Recursive) overlapText(text string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	tokens := r.tok.Encode(text)
	if len(tokens) <= overlap {
		return text
	}

	decoded := r.tok.Decode(tokens[len(tokens)-overlap:])
	if utf8.ValidString(decoded) {
		return decoded
	}

	// 4 bytes per token is a conservative estimate for BPE encodings.
	runes := []rune(text)
	estimate := overlap * 4
	if len(runes) <= estimate {
		return text
	}
	return string(runes[len(runes)-estimate:])
}

// splitAfter splits text on sep, keeping the separator attached to the end
// of each piece except possibly the last.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
