package chunkers

import (
	"regexp"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
)

// numberedHeading matches headings like "1 Introduction", "2. Methods" or
// "3.1.2 Results"; capture group 1 is the section number. Top-level numbers
// are capped at two digits so years and quantities do not look like
// headings.
var numberedHeading = regexp.MustCompile(`^(\d{1,2}(?:\.\d{1,3})*)[.)]?\s+\S`)

// abstractLead matches an abstract-like leading unit in English or Chinese.
var abstractLead = regexp.MustCompile(`(?i)^(abstract|摘要)\b|^摘要`)

// headingLevel returns the nesting depth of a heading-looking line, or 0
// when the text does not open with a heading. Markdown hashes and numbered
// section prefixes are both recognized.
func headingLevel(text string) int {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "#") {
		level := 0
		for _, r := range line {
			if r != '#' {
				break
			}
			level++
		}
		if level < len(line) && line[level] == ' ' {
			return level
		}
		return 0
	}

	match := numberedHeading.FindStringSubmatch(line)
	if match == nil {
		return 0
	}
	return strings.Count(match[1], ".") + 1
}

func looksLikeAbstract(text string) bool {
	return abstractLead.MatchString(strings.TrimSpace(text))
}

func isQuestion(text string) bool {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasSuffix(line, "?") || strings.HasSuffix(line, "？") {
		return true
	}
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "q:") || strings.HasPrefix(lower, "q.") ||
		strings.HasPrefix(lower, "question")
}

// chunkPaper handles paper-like documents: the abstract becomes its own
// high-priority chunk that is never merged with other content, tables become
// separate atomic chunks, and everything else is grouped between consecutive
// top-level headings with subsection nesting preserved inside the group.
func chunkPaper(units []models.LogicalUnit, s *splitter, opts Options) []models.Chunk {
	var chunks []models.Chunk
	remaining := make([]models.LogicalUnit, 0, len(units))

	abstractDone := false
	for i, unit := range units {
		if unit.Empty() {
			continue
		}
		if !abstractDone && (unit.Role == models.RoleAbstract || (i < 3 && looksLikeAbstract(unit.Text))) {
			chunks = append(chunks, models.Chunk{
				Text:        unit.Text,
				TokenCount:  s.tok.Count(unit.Text),
				IsAbstract:  true,
				SourceUnits: []int{unit.Ordinal},
			})
			abstractDone = true
			continue
		}
		remaining = append(remaining, unit)
	}

	chunks = append(chunks, groupByHeadings(remaining, s)...)
	return chunks
}

// chunkManual is the heading-driven grouping of chunkPaper without abstract
// detection, for manuals and guides.
func chunkManual(units []models.LogicalUnit, s *splitter, _ Options) []models.Chunk {
	nonEmpty := make([]models.LogicalUnit, 0, len(units))
	for _, unit := range units {
		if !unit.Empty() {
			nonEmpty = append(nonEmpty, unit)
		}
	}
	return groupByHeadings(nonEmpty, s)
}

// groupByHeadings makes one chunk from all units between two consecutive
// top-level headings. Tables are lifted out into separate atomic chunks
// rather than interleaved with prose.
func groupByHeadings(units []models.LogicalUnit, s *splitter) []models.Chunk {
	var chunks []models.Chunk
	var section []models.LogicalUnit

	flushSection := func() {
		if len(section) == 0 {
			return
		}
		texts := make([]string, 0, len(section))
		ordinals := make([]int, 0, len(section))
		for _, unit := range section {
			texts = append(texts, unit.Text)
			ordinals = append(ordinals, unit.Ordinal)
		}
		text := strings.Join(texts, "\n\n")
		chunks = append(chunks, models.Chunk{
			Text:        text,
			TokenCount:  s.tok.Count(text),
			SourceUnits: ordinals,
		})
		section = nil
	}

	for _, unit := range units {
		if unit.Role == models.RoleTable {
			chunks = append(chunks, models.Chunk{
				Text:        unit.Text,
				TokenCount:  s.tok.Count(unit.Text),
				Atomic:      true,
				SourceUnits: []int{unit.Ordinal},
			})
			continue
		}

		topLevel := headingLevel(unit.Text) == 1 ||
			(unit.Role == models.RoleHeading && headingLevel(unit.Text) <= 1)
		if topLevel {
			flushSection()
		}
		section = append(section, unit)
	}
	flushSection()

	return chunks
}
