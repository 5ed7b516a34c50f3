package chunkers

import (
	"github.com/docstone/ingest-go/internal/manager/models"
)

// chunkBook handles book-like documents: when a table of contents is
// available (heading units), each chapter is processed on its own; within a
// chapter the prioritized delimiter list splits text until pieces are near
// the target size. Without headings the whole document is one chapter.
func chunkBook(units []models.LogicalUnit, s *splitter, opts Options) []models.Chunk {
	var chunks []models.Chunk
	var chapter []piece

	flushChapter := func() {
		if len(chapter) == 0 {
			return
		}
		chunks = append(chunks, s.accumulate(chapter, opts.MergeThreshold)...)
		chapter = nil
	}

	for _, unit := range units {
		if unit.Empty() {
			continue
		}
		isChapterStart := unit.Role == models.RoleHeading || headingLevel(unit.Text) == 1
		if isChapterStart {
			flushChapter()
		}
		for _, fragment := range s.fragments(unit.Text) {
			chapter = append(chapter, piece{text: fragment, unit: unit.Ordinal})
		}
	}
	flushChapter()

	return chunks
}
