package interfaces

import (
	"context"

	"github.com/docstone/ingest-go/internal/manager/models"
)

// Extractor turns raw document bytes into an ordered sequence of logical
// units. Extractors are pure: CPU and memory only, no writes to any store.
type Extractor interface {
	// Extract parses the raw bytes into logical units.
	Extract(ctx context.Context, data []byte) ([]models.LogicalUnit, error)

	// Category returns the document category this extractor handles.
	Category() models.Category
}

// Embedder converts one chunk of text into a fixed-dimension vector via an
// external embedding provider.
type Embedder interface {
	// Embed creates a vector embedding for the given content.
	Embed(ctx context.Context, content string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimension returns the dimension of the embedding vectors.
	Dimension() int

	// MaxBatchSize returns how many chunks may be embedded concurrently
	// against this provider.
	MaxBatchSize() int
}

// VectorSink persists embedded chunks keyed by (document id, ordinal) so
// ordering survives out-of-order embedding completion, and concurrent jobs
// for different documents never conflict.
type VectorSink interface {
	// Store upserts embedded chunks. Writes for the same key supersede
	// earlier ones.
	Store(ctx context.Context, chunks []models.EmbeddedChunk) error

	// DeleteDocument removes all embedded chunks for a document. Used when
	// a re-ingestion supersedes prior chunks.
	DeleteDocument(ctx context.Context, documentID string) error

	// Name returns the backend name for logging.
	Name() string
}

// JobStore persists ingestion jobs for audit and status queries.
type JobStore interface {
	Create(ctx context.Context, job *models.IngestionJob) error
	Update(ctx context.Context, job *models.IngestionJob) error
	GetByID(ctx context.Context, id string) (*models.IngestionJob, error)
	List(ctx context.Context) ([]models.IngestionJob, error)
}

// StatusSink receives status updates for the calling system. Reporting is
// best-effort: a delivery failure is logged by the orchestrator and never
// rolls back or retries the ingestion itself.
type StatusSink interface {
	Report(ctx context.Context, update models.StatusUpdate) error
}

// ByteFetcher resolves a document's source locator to its raw bytes. The
// fetch mechanism (filesystem, bucket, URL) is the caller's concern; the
// pipeline only requires a byte stream.
type ByteFetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// EmbedResult is the per-chunk outcome of the embedding stage. Failures are
// ordinary values so that a partial batch is a type-checked code path, not
// exception-driven control flow.
type EmbedResult struct {
	Chunk  *models.Chunk
	Vector []float32
	Err    error
}
