package detect

import (
	"testing"

	"github.com/docstone/ingest-go/internal/manager/models"
)

func strPtr(s string) *string {
	return &s
}

func TestDetector_Detect(t *testing.T) {
	detector := NewDetector()

	tests := []struct {
		name         string
		filename     string
		declaredType *string
		expected     models.Category
		description  string
	}{
		{
			name:         "declared pdf mime",
			filename:     "whatever.bin",
			declaredType: strPtr("application/pdf"),
			expected:     models.CategoryPDF,
			description:  "declared MIME type wins over extension",
		},
		{
			name:         "declared mime with charset parameter",
			filename:     "notes",
			declaredType: strPtr("text/plain; charset=utf-8"),
			expected:     models.CategoryPlainText,
			description:  "MIME parameters are stripped before lookup",
		},
		{
			name:         "declared mime uppercase",
			filename:     "notes",
			declaredType: strPtr("Text/HTML"),
			expected:     models.CategoryHTML,
			description:  "MIME matching is case-insensitive",
		},
		{
			name:         "unknown declared mime falls back to extension",
			filename:     "deck.pptx",
			declaredType: strPtr("application/octet-stream"),
			expected:     models.CategoryPresentation,
			description:  "unrecognized MIME falls back to filename extension",
		},
		{
			name:        "docx by extension",
			filename:    "report.docx",
			expected:    models.CategoryDocx,
			description: "extension matching without declared type",
		},
		{
			name:        "markdown by extension",
			filename:    "README.md",
			expected:    models.CategoryMarkdown,
			description: "markdown extension maps to markdown category",
		},
		{
			name:        "csv by extension",
			filename:    "data.CSV",
			expected:    models.CategoryCSV,
			description: "extension matching is case-insensitive",
		},
		{
			name:        "unsupported extension with no declared type",
			filename:    "archive.xyz",
			expected:    models.CategoryUnknown,
			description: "neither signal resolves, unknown is returned without error",
		},
		{
			name:        "no extension at all",
			filename:    "LICENSE",
			expected:    models.CategoryUnknown,
			description: "bare filename cannot be classified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(tt.filename, tt.declaredType)
			if got != tt.expected {
				t.Errorf("Detect(%q) = %q, want %q (%s)", tt.filename, got, tt.expected, tt.description)
			}
		})
	}
}

func TestDetector_Detect_Idempotent(t *testing.T) {
	detector := NewDetector()

	// Identical input must classify identically on every call.
	first := detector.Detect("report.pdf", nil)
	for i := 0; i < 10; i++ {
		if got := detector.Detect("report.pdf", nil); got != first {
			t.Fatalf("detection not idempotent: got %q, want %q", got, first)
		}
	}
}
