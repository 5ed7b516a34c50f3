package extractors

import (
	"context"

	"github.com/docstone/ingest-go/internal/manager/models"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// HTMLExtractor converts HTML to markdown and then extracts paragraph-level
// units the same way the markdown extractor does, so headings survive as
// structure for the chunker.
type HTMLExtractor struct {
	converter *md.Converter
	markdown  *TextExtractor
}

func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		converter: md.NewConverter("", true, nil),
		markdown:  NewMarkdownExtractor(),
	}
}

func (e *HTMLExtractor) Category() models.Category {
	return models.CategoryHTML
}

func (e *HTMLExtractor) Extract(ctx context.Context, data []byte) ([]models.LogicalUnit, error) {
	markdown, err := e.converter.ConvertString(string(data))
	if err != nil {
		return nil, newExtractionError(models.CategoryHTML, "cannot convert html", err)
	}

	units, err := e.markdown.Extract(ctx, []byte(markdown))
	if err != nil {
		return nil, newExtractionError(models.CategoryHTML, "html has no extractable text", ErrEmptyDocument)
	}
	return units, nil
}
