package chunkers

import (
	"github.com/docstone/ingest-go/internal/manager/models"
)

// chunkNaive is the fallback strategy: every non-empty unit is split on the
// prioritized delimiter list and the resulting pieces are greedily
// accumulated up to the token budget. Table units stay atomic; a table is
// never interleaved with surrounding prose.
func chunkNaive(units []models.LogicalUnit, s *splitter, opts Options) []models.Chunk {
	var chunks []models.Chunk
	var pending []piece

	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		chunks = append(chunks, s.accumulate(pending, opts.MergeThreshold)...)
		pending = nil
	}

	for _, unit := range units {
		if unit.Empty() {
			continue
		}
		if unit.Role == models.RoleTable {
			flushPending()
			chunks = append(chunks, models.Chunk{
				Text:        unit.Text,
				TokenCount:  s.tok.Count(unit.Text),
				Atomic:      true,
				SourceUnits: []int{unit.Ordinal},
			})
			continue
		}
		for _, fragment := range s.fragments(unit.Text) {
			pending = append(pending, piece{text: fragment, unit: unit.Ordinal})
		}
	}
	flushPending()

	return chunks
}
