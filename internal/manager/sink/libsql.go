package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/db"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

// writeTimeout bounds every sink write and delete.
var writeTimeout = 30 * time.Second

// LibSQLSink persists embedded chunks in libSQL. The (document_id, ordinal)
// primary key makes every write an upsert, so re-ingesting a document
// supersedes its earlier chunks row by row.
type LibSQLSink struct {
	db     *db.DB
	logger zerolog.Logger
}

// NewLibSQLSink creates a sink over an open libSQL connection.
func NewLibSQLSink(database *db.DB) *LibSQLSink {
	logger := util.NewLogger(zerolog.ErrorLevel)
	return &LibSQLSink{
		db:     database,
		logger: logger,
	}
}

// Store upserts embedded chunks in one transaction.
func (s *LibSQLSink) Store(ctx context.Context, chunks []models.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to begin transaction")
		return err
	}

	query := `
		INSERT OR REPLACE INTO embedded_chunks
			(document_id, ordinal, knowledge_base, body, token_count,
			 is_abstract, oversize, model, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		s.logger.Error().Err(err).Msg("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	for i := range chunks {
		ch := &chunks[i]
		embedding, err := json.Marshal(ch.Vector)
		if err != nil {
			_ = tx.Rollback()
			s.logger.Error().Err(err).Msg("Failed to marshal embedding")
			return err
		}

		_, err = stmt.ExecContext(ctx,
			ch.DocumentID, ch.Ordinal, ch.KnowledgeBaseID, ch.Text, ch.TokenCount,
			boolToInt(ch.IsAbstract), boolToInt(ch.OversizeUnresolvable),
			ch.Model, string(embedding), now)
		if err != nil {
			_ = tx.Rollback()
			s.logger.Error().Err(err).Str("document_id", ch.DocumentID).Int("ordinal", ch.Ordinal).
				Msg("Failed to store chunk")
			return err
		}
	}

	return tx.Commit()
}

// DeleteDocument removes all embedded chunks for a document.
func (s *LibSQLSink) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	query := `DELETE FROM embedded_chunks WHERE document_id = ?`
	_, err := s.db.ExecContext(ctx, query, documentID)
	if err != nil {
		s.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to delete document chunks")
	}
	return err
}

// Name returns the backend name for logging.
func (s *LibSQLSink) Name() string {
	return "libsql"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
