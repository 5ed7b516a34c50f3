package chunkers

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// Tokenizer wraps a tiktoken codec. BPE token counts are deterministic for
// identical input and handle text mixing word-delimited and
// non-word-delimited scripts, which byte or word counting does not.
type Tokenizer struct {
	codec tokenizer.Codec
	name  string
}

// NewTokenizer returns a tokenizer for the given encoding name; empty or
// unknown names select cl100k_base.
func NewTokenizer(name string) (*Tokenizer, error) {
	encoding := tokenizer.Cl100kBase
	switch strings.ToLower(name) {
	case "p50k_base":
		encoding = tokenizer.P50kBase
	case "r50k_base":
		encoding = tokenizer.R50kBase
	case "", "cl100k_base":
	default:
		name = "cl100k_base"
	}
	if name == "" {
		name = "cl100k_base"
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{codec: codec, name: name}, nil
}

// Name returns the encoding name.
func (t *Tokenizer) Name() string {
	return t.name
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		// Encoding cl100k_base input never fails for valid UTF-8; fall back
		// to a rune-based estimate so counting stays total.
		return (len([]rune(text)) + 3) / 4
	}
	return len(ids)
}

// SplitAtTokens force-splits text into pieces of at most max tokens at hard
// token boundaries. Used as the last resort when no delimiter can bring a
// piece under the budget.
func (t *Tokenizer) SplitAtTokens(text string, max int) []string {
	if max <= 0 {
		return []string{text}
	}

	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return splitRunes(text, max*4)
	}
	if len(ids) <= max {
		return []string{text}
	}

	var pieces []string
	for start := 0; start < len(ids); start += max {
		end := start + max
		if end > len(ids) {
			end = len(ids)
		}
		piece, err := t.codec.Decode(ids[start:end])
		if err != nil {
			return splitRunes(text, max*4)
		}
		pieces = append(pieces, piece)
	}
	return pieces
}

func splitRunes(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
