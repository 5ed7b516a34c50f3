package extractors

import (
	"context"
	"strings"
	"testing"

	"github.com/docstone/ingest-go/internal/manager/models"
)

func TestCSVExtractor_Extract(t *testing.T) {
	tests := []struct {
		name          string
		maxRows       int
		input         string
		expectError   bool
		expectedUnits int
		description   string
	}{
		{
			name:          "rows grouped under cap",
			maxRows:       2,
			input:         "name,age\nalice,30\nbob,25\ncarol,41\ndave,29\neve,33",
			expectedUnits: 3,
			description:   "5 data rows with cap 2 produce 3 units",
		},
		{
			name:          "all rows fit one unit",
			maxRows:       100,
			input:         "name,age\nalice,30\nbob,25",
			expectedUnits: 1,
			description:   "rows under the cap stay in a single unit",
		},
		{
			name:          "header only",
			maxRows:       10,
			input:         "name,age",
			expectedUnits: 1,
			description:   "header-only file yields one unit",
		},
		{
			name:        "empty file",
			maxRows:     10,
			input:       "",
			expectError: true,
			description: "no rows at all is an empty document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewCSVExtractor(tt.maxRows)
			units, err := extractor.Extract(context.Background(), []byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got none (%s)", tt.description)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v (%s)", err, tt.description)
			}
			if len(units) != tt.expectedUnits {
				t.Fatalf("expected %d units, got %d (%s)", tt.expectedUnits, len(units), tt.description)
			}
			// Every row-group unit repeats the header so it stands alone.
			for i, unit := range units {
				if unit.Role != models.RoleTable {
					t.Errorf("unit %d role = %q, want table", i, unit.Role)
				}
				if !strings.HasPrefix(unit.Text, "name, age") {
					t.Errorf("unit %d does not start with header: %q", i, unit.Text)
				}
			}
		})
	}
}

func TestJSONExtractor_Extract(t *testing.T) {
	tests := []struct {
		name          string
		maxRows       int
		input         string
		expectError   bool
		expectedUnits int
		description   string
	}{
		{
			name:          "array grouped by cap",
			maxRows:       2,
			input:         `[{"a":1},{"a":2},{"a":3}]`,
			expectedUnits: 2,
			description:   "3 records with cap 2 produce 2 units",
		},
		{
			name:          "top-level object is one unit",
			maxRows:       2,
			input:         `{"title":"doc","body":"text"}`,
			expectedUnits: 1,
			description:   "non-array JSON becomes a single unit",
		},
		{
			name:        "empty array",
			maxRows:     2,
			input:       `[]`,
			expectError: true,
			description: "empty array is an empty document",
		},
		{
			name:        "invalid json",
			maxRows:     2,
			input:       `{not json`,
			expectError: true,
			description: "malformed input is an extraction error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewJSONExtractor(tt.maxRows)
			units, err := extractor.Extract(context.Background(), []byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got none (%s)", tt.description)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v (%s)", err, tt.description)
			}
			if len(units) != tt.expectedUnits {
				t.Fatalf("expected %d units, got %d (%s)", tt.expectedUnits, len(units), tt.description)
			}
		})
	}
}
