package extractors

import (
	"github.com/docstone/ingest-go/internal/manager/interfaces"
	"github.com/docstone/ingest-go/internal/manager/models"
)

// Defaults returns the full extractor set, one per supported category.
// maxRows caps CSV/JSON row groups; <= 0 selects the default cap.
func Defaults(maxRows int) map[models.Category]interfaces.Extractor {
	registry := map[models.Category]interfaces.Extractor{}
	for _, extractor := range []interfaces.Extractor{
		NewPDFExtractor(),
		NewDocxExtractor(),
		NewPresentationExtractor(),
		NewPlainTextExtractor(),
		NewMarkdownExtractor(),
		NewCSVExtractor(maxRows),
		NewJSONExtractor(maxRows),
		NewHTMLExtractor(),
	} {
		registry[extractor.Category()] = extractor
	}
	return registry
}
