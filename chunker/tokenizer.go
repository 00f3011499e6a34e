package chunker

import (
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used by the default tokenizer.
const DefaultEncoding = "cl100k_base"

// Tokenizer converts text to and from token streams. Implementations must
// be safe for concurrent use; Decode(Encode(s)) must equal s.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// tiktokenTokenizer wraps a tiktoken BPE encoding.
type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ Tokenizer = (*tiktokenTokenizer)(nil)

// NewTiktokenTokenizer creates a tokenizer backed by the named tiktoken
// encoding (e.g. "cl100k_base").
func NewTiktokenTokenizer(encoding string) (Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// Encode converts text into tokens. Special tokens are not treated
// specially; the input is tokenized as plain text.
func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts tokens back into text.
func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
