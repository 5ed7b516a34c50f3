package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/db"
)

func TestNewJobRepository_Unit(t *testing.T) {
	dbWrapper := &db.DB{}
	repo := NewJobRepository(dbWrapper)

	if repo == nil {
		t.Fatal("Expected non-nil repository")
	}
	if repo.db != dbWrapper {
		t.Error("Expected database to be set correctly")
	}
}

func TestMarshalFailures(t *testing.T) {
	tests := []struct {
		name        string
		failures    []models.ChunkFailure
		expected    string
		description string
	}{
		{
			name:        "no failures",
			failures:    nil,
			expected:    "",
			description: "empty failure list serializes to empty string, not null JSON",
		},
		{
			name: "single failure",
			failures: []models.ChunkFailure{
				{DocumentID: "d1", Ordinal: 3, Stage: models.StageEmbedding, Cause: "timeout"},
			},
			expected:    `[{"document_id":"d1","ordinal":3,"stage":"embedding","cause":"timeout"}]`,
			description: "failures serialize with their stage and cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalFailures(tt.failures)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("marshalFailures() = %q, want %q (%s)", got, tt.expected, tt.description)
			}
		})
	}
}

func TestTimePtrRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	formatted := formatTimePtr(&now)
	s, ok := formatted.(string)
	if !ok {
		t.Fatalf("expected string, got %T", formatted)
	}

	parsed, err := parseTimePtr(sql.NullString{String: s, Valid: true})
	if err != nil {
		t.Fatalf("parseTimePtr failed: %v", err)
	}
	if parsed == nil || !parsed.Equal(now) {
		t.Errorf("round trip lost the timestamp: got %v, want %v", parsed, now)
	}

	if formatTimePtr(nil) != nil {
		t.Error("nil time should format to nil")
	}
	if got, err := parseTimePtr(sql.NullString{}); err != nil || got != nil {
		t.Errorf("null string should parse to nil, got %v, %v", got, err)
	}
}
