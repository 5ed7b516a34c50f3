package chunkers

import (
	"strings"
	"unicode"

	"github.com/docstone/ingest-go/internal/manager/models"
)

// piece is a budget-sized fragment of text that remembers which logical unit
// it came from, so chunk provenance survives splitting and merging.
type piece struct {
	text string
	unit int
}

// splitter breaks text into fragments that fit the token budget, trying a
// prioritized delimiter list first, then sentence boundaries, then a hard
// token-boundary split. A fragment that exactly matches the budget is not
// split further.
type splitter struct {
	tok    *Tokenizer
	budget int
	delims []string
}

func newSplitter(tok *Tokenizer, opts Options) *splitter {
	return &splitter{tok: tok, budget: opts.TokenBudget, delims: opts.Delimiters}
}

// fragments splits text so every returned fragment fits the budget.
func (s *splitter) fragments(text string) []string {
	return s.split(text, 0)
}

func (s *splitter) split(text string, level int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.tok.Count(text) <= s.budget {
		return []string{text}
	}

	if level < len(s.delims) {
		parts := strings.Split(text, s.delims[level])
		if len(parts) == 1 {
			return s.split(text, level+1)
		}
		var out []string
		for _, part := range parts {
			out = append(out, s.split(part, level+1)...)
		}
		return out
	}

	// Delimiter list exhausted: sentence boundaries, then the hard split.
	sentences := splitSentences(text)
	if len(sentences) > 1 {
		var out []string
		for _, sentence := range sentences {
			if s.tok.Count(sentence) <= s.budget {
				out = append(out, sentence)
			} else {
				out = append(out, s.tok.SplitAtTokens(sentence, s.budget)...)
			}
		}
		return out
	}
	return s.tok.SplitAtTokens(text, s.budget)
}

// accumulate greedily packs fragments into chunks: a fragment is added as
// long as the merged text stays within the budget, and accumulation stops
// early once the chunk reaches the merge threshold. Oversized fragments
// cannot occur here; the splitter already bounded each one.
func (s *splitter) accumulate(pieces []piece, threshold float64) []models.Chunk {
	stopAt := int(threshold * float64(s.budget))
	if stopAt <= 0 {
		stopAt = s.budget
	}

	var chunks []models.Chunk
	var current strings.Builder
	var units []int
	currentTokens := 0

	flush := func() {
		if currentTokens == 0 {
			return
		}
		chunks = append(chunks, models.Chunk{
			Text:        current.String(),
			TokenCount:  currentTokens,
			SourceUnits: dedupInts(units),
		})
		current.Reset()
		units = nil
		currentTokens = 0
	}

	for _, p := range pieces {
		if currentTokens > 0 {
			merged := current.String() + "\n" + p.text
			mergedTokens := s.tok.Count(merged)
			if mergedTokens > s.budget {
				flush()
			} else {
				current.Reset()
				current.WriteString(merged)
				currentTokens = mergedTokens
				units = append(units, p.unit)
				if currentTokens >= stopAt {
					flush()
				}
				continue
			}
		}
		current.WriteString(p.text)
		currentTokens = s.tok.Count(p.text)
		units = append(units, p.unit)
		if currentTokens >= stopAt {
			flush()
		}
	}
	flush()

	return chunks
}

// sentenceEnders covers both ASCII and CJK sentence-ending punctuation.
var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// splitSentences breaks text after sentence-ending punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if !sentenceEnders[r] {
			continue
		}
		// ASCII enders only terminate a sentence before whitespace or at
		// the end, so "3.5" or "e.g." mid-word stays intact.
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
		}
		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}
	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

func dedupInts(values []int) []int {
	seen := make(map[int]bool, len(values))
	var out []int
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
