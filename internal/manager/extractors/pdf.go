package extractors

import (
	"bytes"
	"context"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// PDFExtractor extracts text per page. Pages with no extractable text, e.g.
// scanned images, become empty logical units rather than failures; downstream
// chunking skips them. The page number is retained on each unit.
type PDFExtractor struct {
	logger zerolog.Logger
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{logger: util.NewLogger(util.LevelFromEnv())}
}

func (e *PDFExtractor) Category() models.Category {
	return models.CategoryPDF
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]models.LogicalUnit, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newExtractionError(models.CategoryPDF, "corrupt or password-protected file", err)
	}

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return nil, newExtractionError(models.CategoryPDF, "document has no pages", ErrEmptyDocument)
	}

	units := make([]models.LogicalUnit, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				// A single unreadable page is not fatal; it contributes an
				// empty unit just like a scanned page.
				e.logger.Warn().Err(err).Int("page", i).Msg("failed to extract text from page")
				text = ""
			}
		}

		units = append(units, models.LogicalUnit{
			Ordinal: i - 1,
			Text:    text,
			Role:    models.RoleBody,
			Page:    i,
		})
	}

	return units, nil
}
