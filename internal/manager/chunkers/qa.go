package chunkers

import (
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
)

// chunkQA pairs each detected question with its immediately following
// answer. Each pair is one atomic chunk, never split even when it exceeds
// the target size. Units before the first question are accumulated as
// preamble the naive way.
func chunkQA(units []models.LogicalUnit, s *splitter, opts Options) []models.Chunk {
	var chunks []models.Chunk
	var pair []models.LogicalUnit
	var preamble []piece

	flushPair := func() {
		if len(pair) == 0 {
			return
		}
		texts := make([]string, 0, len(pair))
		ordinals := make([]int, 0, len(pair))
		for _, unit := range pair {
			texts = append(texts, unit.Text)
			ordinals = append(ordinals, unit.Ordinal)
		}
		text := strings.Join(texts, "\n")
		chunks = append(chunks, models.Chunk{
			Text:        text,
			TokenCount:  s.tok.Count(text),
			Atomic:      true,
			SourceUnits: ordinals,
		})
		pair = nil
	}

	inPairs := false
	for _, unit := range units {
		if unit.Empty() {
			continue
		}
		if isQuestion(unit.Text) {
			flushPair()
			inPairs = true
		}
		if !inPairs {
			for _, fragment := range s.fragments(unit.Text) {
				preamble = append(preamble, piece{text: fragment, unit: unit.Ordinal})
			}
			continue
		}
		pair = append(pair, unit)
	}
	flushPair()

	if len(preamble) > 0 {
		chunks = append(s.accumulate(preamble, opts.MergeThreshold), chunks...)
	}
	return chunks
}

// chunkSlides emits one chunk per slide-derived unit; slides were already
// merged with their speaker notes during extraction and are never split
// regardless of size, since slide content is assumed bounded.
func chunkSlides(units []models.LogicalUnit, s *splitter, _ Options) []models.Chunk {
	var chunks []models.Chunk
	for _, unit := range units {
		if unit.Empty() {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text:        unit.Text,
			TokenCount:  s.tok.Count(unit.Text),
			Atomic:      true,
			SourceUnits: []int{unit.Ordinal},
		})
	}
	return chunks
}
