package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/docstone/ingest-go/internal/manager/models"
)

// buildDocx wraps the given OOXML body content in a minimal docx archive.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	part, err := writer.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create document.xml: %v", err)
	}
	document := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := part.Write([]byte(document)); err != nil {
		t.Fatalf("failed to write document.xml: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

func paragraph(style, text string) string {
	pPr := ""
	if style != "" {
		pPr = `<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`
	}
	return `<w:p>` + pPr + `<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestDocxExtractor_Extract(t *testing.T) {
	extractor := NewDocxExtractor()

	t.Run("paragraphs with style roles", func(t *testing.T) {
		data := buildDocx(t,
			paragraph("Title", "Quarterly Report")+
				paragraph("Heading1", "1 Overview")+
				paragraph("", "Body paragraph one.")+
				paragraph("", "Body paragraph two."))

		units, err := extractor.Extract(context.Background(), data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(units) != 4 {
			t.Fatalf("expected 4 units, got %d", len(units))
		}

		expectedRoles := []models.UnitRole{models.RoleTitle, models.RoleHeading, models.RoleBody, models.RoleBody}
		for i, role := range expectedRoles {
			if units[i].Role != role {
				t.Errorf("unit %d role = %q, want %q", i, units[i].Role, role)
			}
		}
		if units[0].Text != "Quarterly Report" {
			t.Errorf("title text = %q", units[0].Text)
		}
	})

	t.Run("table becomes one unit", func(t *testing.T) {
		table := `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>metric</w:t></w:r></w:p></w:tc>` +
			`<w:tc><w:p><w:r><w:t>value</w:t></w:r></w:p></w:tc></w:tr>` +
			`<w:tr><w:tc><w:p><w:r><w:t>latency</w:t></w:r></w:p></w:tc>` +
			`<w:tc><w:p><w:r><w:t>12ms</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
		data := buildDocx(t, paragraph("", "Before the table.")+table+paragraph("", "After the table."))

		units, err := extractor.Extract(context.Background(), data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(units) != 3 {
			t.Fatalf("expected 3 units, got %d", len(units))
		}
		if units[1].Role != models.RoleTable {
			t.Errorf("middle unit role = %q, want table", units[1].Role)
		}
		// Table cell paragraphs must not leak out as standalone body units.
		for _, unit := range []models.LogicalUnit{units[0], units[2]} {
			if unit.Role != models.RoleBody {
				t.Errorf("prose unit role = %q, want body", unit.Role)
			}
		}
	})

	t.Run("not a docx", func(t *testing.T) {
		if _, err := extractor.Extract(context.Background(), []byte("nope")); err == nil {
			t.Fatal("expected error for non-archive input")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := extractor.Extract(context.Background(), buildDocx(t, "")); err == nil {
			t.Fatal("expected empty-document error")
		}
	})
}
