package extractors

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
)

const defaultMaxRowsPerUnit = 100

// TabularExtractor handles CSV and JSON documents: row-group or record-group
// logical units, capped at a configurable row count per unit to bound memory.
type TabularExtractor struct {
	category       models.Category
	maxRowsPerUnit int
}

// NewCSVExtractor returns a CSV extractor grouping at most maxRows data rows
// per unit; maxRows <= 0 selects the default.
func NewCSVExtractor(maxRows int) *TabularExtractor {
	if maxRows <= 0 {
		maxRows = defaultMaxRowsPerUnit
	}
	return &TabularExtractor{category: models.CategoryCSV, maxRowsPerUnit: maxRows}
}

// NewJSONExtractor returns a JSON extractor grouping at most maxRows records
// per unit; maxRows <= 0 selects the default.
func NewJSONExtractor(maxRows int) *TabularExtractor {
	if maxRows <= 0 {
		maxRows = defaultMaxRowsPerUnit
	}
	return &TabularExtractor{category: models.CategoryJSON, maxRowsPerUnit: maxRows}
}

func (e *TabularExtractor) Category() models.Category {
	return e.category
}

func (e *TabularExtractor) Extract(_ context.Context, data []byte) ([]models.LogicalUnit, error) {
	if e.category == models.CategoryCSV {
		return e.extractCSV(data)
	}
	return e.extractJSON(data)
}

// extractCSV groups data rows under a repeated header line so every unit is
// independently interpretable.
func (e *TabularExtractor) extractCSV(data []byte) ([]models.LogicalUnit, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, newExtractionError(models.CategoryCSV, "malformed csv", err)
	}
	if len(records) == 0 {
		return nil, newExtractionError(models.CategoryCSV, "csv has no rows", ErrEmptyDocument)
	}

	header := strings.Join(records[0], ", ")
	rows := records[1:]
	if len(rows) == 0 {
		// Header-only file still yields a single unit.
		return []models.LogicalUnit{{Ordinal: 0, Text: header, Role: models.RoleTable}}, nil
	}

	var units []models.LogicalUnit
	for start := 0; start < len(rows); start += e.maxRowsPerUnit {
		end := start + e.maxRowsPerUnit
		if end > len(rows) {
			end = len(rows)
		}

		var sb strings.Builder
		sb.WriteString(header)
		for _, row := range rows[start:end] {
			sb.WriteByte('\n')
			sb.WriteString(strings.Join(row, ", "))
		}

		units = append(units, models.LogicalUnit{
			Ordinal: len(units),
			Text:    sb.String(),
			Role:    models.RoleTable,
		})
	}

	return units, nil
}

// extractJSON groups top-level array elements into record groups; any other
// top-level value becomes a single unit.
func (e *TabularExtractor) extractJSON(data []byte) ([]models.LogicalUnit, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		// Not an array: accept any other valid JSON value as one unit.
		var value json.RawMessage
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, newExtractionError(models.CategoryJSON, "malformed json", err)
		}
		text := strings.TrimSpace(string(value))
		if text == "" || text == "null" {
			return nil, newExtractionError(models.CategoryJSON, "json document is empty", ErrEmptyDocument)
		}
		return []models.LogicalUnit{{Ordinal: 0, Text: text, Role: models.RoleBody}}, nil
	}

	if len(records) == 0 {
		return nil, newExtractionError(models.CategoryJSON, "json array is empty", ErrEmptyDocument)
	}

	var units []models.LogicalUnit
	for start := 0; start < len(records); start += e.maxRowsPerUnit {
		end := start + e.maxRowsPerUnit
		if end > len(records) {
			end = len(records)
		}

		lines := make([]string, 0, end-start)
		for _, record := range records[start:end] {
			lines = append(lines, string(record))
		}

		units = append(units, models.LogicalUnit{
			Ordinal: len(units),
			Text:    strings.Join(lines, "\n"),
			Role:    models.RoleBody,
		})
	}

	return units, nil
}
