package detect

import (
	"path/filepath"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

// mimeCategories maps trusted declared MIME types to document categories.
var mimeCategories = map[string]models.Category{
	"application/pdf": models.CategoryPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": models.CategoryDocx,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": models.CategoryPresentation,
	"application/vnd.ms-powerpoint": models.CategoryPresentation,
	"text/plain":                    models.CategoryPlainText,
	"text/csv":                      models.CategoryCSV,
	"application/csv":               models.CategoryCSV,
	"application/json":              models.CategoryJSON,
	"text/markdown":                 models.CategoryMarkdown,
	"text/x-markdown":               models.CategoryMarkdown,
	"text/html":                     models.CategoryHTML,
	"application/xhtml+xml":         models.CategoryHTML,
}

// extCategories maps filename extensions to document categories. Used only
// when no trusted MIME type is declared.
var extCategories = map[string]models.Category{
	".pdf":      models.CategoryPDF,
	".docx":     models.CategoryDocx,
	".pptx":     models.CategoryPresentation,
	".txt":      models.CategoryPlainText,
	".text":     models.CategoryPlainText,
	".log":      models.CategoryPlainText,
	".csv":      models.CategoryCSV,
	".json":     models.CategoryJSON,
	".md":       models.CategoryMarkdown,
	".markdown": models.CategoryMarkdown,
	".html":     models.CategoryHTML,
	".htm":      models.CategoryHTML,
}

// Detector classifies documents into the closed category set. Detection is
// deterministic for identical input and never returns an error: when neither
// the declared type nor the filename resolves, CategoryUnknown is returned
// and the orchestrator treats that as a permanent failure for the document.
type Detector struct {
	logger zerolog.Logger
}

func NewDetector() *Detector {
	return &Detector{logger: util.NewLogger(util.LevelFromEnv())}
}

// Detect classifies a document. The declared MIME type, when present, is the
// primary signal; the filename extension is the fallback.
func (d *Detector) Detect(filename string, declaredType *string) models.Category {
	if declaredType != nil {
		mime := normalizeMIME(*declaredType)
		if category, ok := mimeCategories[mime]; ok {
			return category
		}
		d.logger.Debug().Str("declared_type", *declaredType).Msg("declared type not recognized, falling back to extension")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if category, ok := extCategories[ext]; ok {
		return category
	}

	d.logger.Warn().Str("filename", filename).Msg("could not classify document")
	return models.CategoryUnknown
}

// normalizeMIME strips parameters such as "; charset=utf-8" and lowercases.
func normalizeMIME(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
