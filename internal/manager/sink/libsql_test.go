package sink

import (
	"context"
	"testing"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/internal/manager/testutil"
)

func TestLibSQLSink_StoreAndSupersede(t *testing.T) {
	database := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, database)

	s := NewLibSQLSink(database)
	ctx := context.Background()

	chunks := []models.EmbeddedChunk{
		{
			DocumentID: "doc-sink-1",
			Ordinal:    0,
			Text:       "first chunk",
			TokenCount: 2,
			Model:      "text-embedding-3-small",
			Vector:     []float32{0.1, 0.2, 0.3},
		},
		{
			DocumentID: "doc-sink-1",
			Ordinal:    1,
			Text:       "second chunk",
			TokenCount: 2,
			Model:      "text-embedding-3-small",
			Vector:     []float32{0.4, 0.5, 0.6},
		},
	}

	if err := s.Store(ctx, chunks); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := testutil.GetRecordCount(t, database, "embedded_chunks"); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}

	// A second write for the same (document_id, ordinal) supersedes the
	// earlier row instead of adding one.
	chunks[0].Text = "first chunk, re-ingested"
	if err := s.Store(ctx, chunks[:1]); err != nil {
		t.Fatalf("Store (supersede) failed: %v", err)
	}
	if got := testutil.GetRecordCount(t, database, "embedded_chunks"); got != 2 {
		t.Fatalf("expected 2 rows after supersede, got %d", got)
	}

	var body string
	err := database.QueryRow(
		"SELECT body FROM embedded_chunks WHERE document_id = ? AND ordinal = ?",
		"doc-sink-1", 0,
	).Scan(&body)
	if err != nil {
		t.Fatalf("failed to read back chunk: %v", err)
	}
	if body != "first chunk, re-ingested" {
		t.Errorf("expected superseded body, got %q", body)
	}
}

func TestLibSQLSink_DeleteDocument(t *testing.T) {
	database := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, database)

	s := NewLibSQLSink(database)
	ctx := context.Background()

	chunks := []models.EmbeddedChunk{
		{DocumentID: "doc-del-1", Ordinal: 0, Text: "a", TokenCount: 1, Model: "m", Vector: []float32{1}},
		{DocumentID: "doc-del-2", Ordinal: 0, Text: "b", TokenCount: 1, Model: "m", Vector: []float32{1}},
	}
	if err := s.Store(ctx, chunks); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if err := s.DeleteDocument(ctx, "doc-del-1"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	if testutil.RecordExists(t, database, "embedded_chunks", "document_id", "doc-del-1") {
		t.Error("expected doc-del-1 chunks to be deleted")
	}
	if !testutil.RecordExists(t, database, "embedded_chunks", "document_id", "doc-del-2") {
		t.Error("expected doc-del-2 chunks to survive")
	}
}

func TestLibSQLSink_EmptyBatch(t *testing.T) {
	s := NewLibSQLSink(nil)
	if err := s.Store(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}
