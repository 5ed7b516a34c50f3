package sink

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
)

// PgVectorSink persists embedded chunks in Postgres with the pgvector
// extension, for deployments that query chunks by vector similarity.
type PgVectorSink struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPgVectorSink opens a Postgres connection from PGVECTOR_DATABASE_URL and
// ensures the chunk table exists.
func NewPgVectorSink(ctx context.Context) (*PgVectorSink, error) {
	logger := util.NewLogger(zerolog.ErrorLevel)

	dsn := os.Getenv("PGVECTOR_DATABASE_URL")
	if dsn == "" {
		logger.Error().Msg("PGVECTOR_DATABASE_URL env variable not set")
		return nil, ErrDatabaseURLNotSet
	}

	database, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open postgres connection")
		return nil, err
	}

	database.SetMaxOpenConns(20)
	database.SetMaxIdleConns(10)
	database.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		logger.Error().Err(err).Msg("Failed to ping postgres")
		return nil, err
	}

	s := &PgVectorSink{
		db:     database,
		logger: logger,
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgVectorSink) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS embedded_chunks (
			document_id    TEXT NOT NULL,
			ordinal        INTEGER NOT NULL,
			knowledge_base TEXT NOT NULL DEFAULT '',
			body           TEXT NOT NULL,
			token_count    INTEGER NOT NULL,
			is_abstract    BOOLEAN NOT NULL DEFAULT FALSE,
			oversize       BOOLEAN NOT NULL DEFAULT FALSE,
			model          TEXT NOT NULL,
			embedding      vector,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (document_id, ordinal)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Error().Err(err).Msg("Failed to ensure pgvector schema")
			return err
		}
	}
	return nil
}

// Store upserts embedded chunks in one transaction.
func (s *PgVectorSink) Store(ctx context.Context, chunks []models.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to begin transaction")
		return err
	}

	const query = `
		INSERT INTO embedded_chunks
			(document_id, ordinal, knowledge_base, body, token_count,
			 is_abstract, oversize, model, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id, ordinal) DO UPDATE SET
			knowledge_base = EXCLUDED.knowledge_base,
			body           = EXCLUDED.body,
			token_count    = EXCLUDED.token_count,
			is_abstract    = EXCLUDED.is_abstract,
			oversize       = EXCLUDED.oversize,
			model          = EXCLUDED.model,
			embedding      = EXCLUDED.embedding,
			created_at     = now()
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		s.logger.Error().Err(err).Msg("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Vector)
		_, err := stmt.ExecContext(ctx,
			ch.DocumentID, ch.Ordinal, ch.KnowledgeBaseID, ch.Text, ch.TokenCount,
			ch.IsAbstract, ch.OversizeUnresolvable, ch.Model, vec)
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
func (s *PgVectorSink) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	const query = `DELETE FROM embedded_chunks WHERE document_id = $1`
	_, err := s.db.ExecContext(ctx, query, documentID)
	if err != nil {
		s.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to delete document chunks")
	}
	return err
}

// Name returns the backend name for logging.
func (s *PgVectorSink) Name() string {
	return "pgvector"
}

// Close releases the underlying connection pool.
func (s *PgVectorSink) Close() error {
	return s.db.Close()
}
