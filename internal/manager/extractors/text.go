package extractors

import (
	"context"
	"regexp"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
)

var blankLinePattern = regexp.MustCompile(`\n[ \t]*\n+`)

// TextExtractor handles plain text and markdown: paragraph-level logical
// units split on blank-line boundaries. For markdown, heading blocks get a
// heading role tag so the structural chunker can group by them.
type TextExtractor struct {
	category models.Category
}

// NewPlainTextExtractor returns an extractor for the plain_text category.
func NewPlainTextExtractor() *TextExtractor {
	return &TextExtractor{category: models.CategoryPlainText}
}

// NewMarkdownExtractor returns an extractor for the markdown category.
func NewMarkdownExtractor() *TextExtractor {
	return &TextExtractor{category: models.CategoryMarkdown}
}

func (e *TextExtractor) Category() models.Category {
	return e.category
}

func (e *TextExtractor) Extract(_ context.Context, data []byte) ([]models.LogicalUnit, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := blankLinePattern.Split(text, -1)

	units := make([]models.LogicalUnit, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		role := models.RoleBody
		if e.category == models.CategoryMarkdown && strings.HasPrefix(block, "#") {
			role = models.RoleHeading
		}
		units = append(units, models.LogicalUnit{
			Ordinal: len(units),
			Text:    block,
			Role:    role,
		})
	}

	if len(units) == 0 {
		return nil, newExtractionError(e.category, "document contains only whitespace", ErrEmptyDocument)
	}
	return units, nil
}
