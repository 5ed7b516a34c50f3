package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

// DocxExtractor produces paragraph-level logical units from the OOXML body
// (word/document.xml). Heading and title paragraph styles become role tags;
// tables are collected into single table-role units instead of being
// interleaved with prose paragraphs.
type DocxExtractor struct {
	logger zerolog.Logger
}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{logger: util.NewLogger(util.LevelFromEnv())}
}

func (e *DocxExtractor) Category() models.Category {
	return models.CategoryDocx
}

func (e *DocxExtractor) Extract(ctx context.Context, data []byte) ([]models.LogicalUnit, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newExtractionError(models.CategoryDocx, "not a valid docx archive", err)
	}

	body, err := readArchiveFile(archive, "word/document.xml")
	if err != nil {
		return nil, newExtractionError(models.CategoryDocx, "missing word/document.xml", err)
	}

	units, err := parseDocxBody(body)
	if err != nil {
		return nil, newExtractionError(models.CategoryDocx, "malformed document body", err)
	}
	if len(units) == 0 {
		return nil, newExtractionError(models.CategoryDocx, "document body is empty", ErrEmptyDocument)
	}

	return units, nil
}

// parseDocxBody walks the OOXML token stream. Paragraphs (w:p) outside
// tables become one unit each; a whole table (w:tbl) becomes one unit with
// rows joined by newlines and cells by tabs.
func parseDocxBody(body []byte) ([]models.LogicalUnit, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var units []models.LogicalUnit
	var paragraph strings.Builder
	var table strings.Builder
	var cell strings.Builder

	role := models.RoleBody
	tableDepth := 0
	inParagraph := false
	inCell := false

	appendUnit := func(text string, r models.UnitRole) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		units = append(units, models.LogicalUnit{
			Ordinal: len(units),
			Text:    text,
			Role:    r,
		})
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tc":
				if tableDepth > 0 {
					inCell = true
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					paragraph.Reset()
					role = models.RoleBody
				}
			case "pStyle":
				if tableDepth == 0 && inParagraph {
					role = styleRole(attrValue(t, "val"))
				}
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return nil, err
				}
				switch {
				case inCell:
					cell.WriteString(text)
				case inParagraph:
					paragraph.WriteString(text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					appendUnit(table.String(), models.RoleTable)
					table.Reset()
				}
			case "tr":
				if tableDepth > 0 {
					table.WriteByte('\n')
				}
			case "tc":
				if inCell {
					inCell = false
					table.WriteString(strings.TrimSpace(cell.String()))
					table.WriteByte('\t')
				}
			case "p":
				if tableDepth == 0 && inParagraph {
					inParagraph = false
					appendUnit(paragraph.String(), role)
				}
			}
		}
	}

	return units, nil
}

// styleRole maps OOXML paragraph styles onto unit roles.
func styleRole(style string) models.UnitRole {
	lower := strings.ToLower(style)
	switch {
	case strings.HasPrefix(lower, "heading"):
		return models.RoleHeading
	case lower == "title":
		return models.RoleTitle
	case lower == "abstract":
		return models.RoleAbstract
	default:
		return models.RoleBody
	}
}

func attrValue(element xml.StartElement, name string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

func readArchiveFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, ErrCorruptFile
}
