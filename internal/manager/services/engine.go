package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docstone/ingest-go/internal/manager/chunkers"
	"github.com/docstone/ingest-go/internal/manager/detect"
	"github.com/docstone/ingest-go/internal/manager/interfaces"
	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDocumentBusy     = errors.New("another job is already processing this document")
	ErrNoDocuments      = errors.New("job has no documents")
	ErrJobNotCancelable = errors.New("job is not running")

	errJobCancelled = errors.New("job cancelled")
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// EngineConfig wires the pipeline stages together.
type EngineConfig struct {
	Detector   *detect.Detector
	Extractors map[models.Category]interfaces.Extractor
	Chunker    *chunkers.Chunker
	Embedder   interfaces.Embedder
	Sink       interfaces.VectorSink
	Jobs       interfaces.JobStore
	Status     interfaces.StatusSink
	Fetcher    interfaces.ByteFetcher

	// StrategyOverride forces one chunking strategy for every document in
	// place of content-based selection.
	StrategyOverride *chunkers.Kind

	// Concurrency caps how many chunks are embedded at once. Zero means use
	// the embedder's own batch bound.
	Concurrency int

	// MaxRetries bounds embed and store attempts per chunk and per batch.
	MaxRetries  int
	BaseBackoff time.Duration
}

// Engine is the ingestion orchestrator. It owns the job state machine:
//
//	pending -> processing -> {completed, partially_completed, failed}
//
// and is the only writer of job records while a job runs.
type Engine struct {
	cfg    EngineConfig
	logger zerolog.Logger
	reg    *jobRegistry
}

// jobRegistry tracks which documents are owned by a running job and the
// cancel flag of each running job. It is shared between an engine and its
// per-dispatch copies.
type jobRegistry struct {
	mu       sync.Mutex
	inflight map[string]string       // document id -> job id
	cancels  map[string]*atomic.Bool // job id -> cancel flag
}

// NewEngine creates an engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	return &Engine{
		cfg:    cfg,
		logger: util.NewLogger(util.LevelFromEnv()),
		reg: &jobRegistry{
			inflight: make(map[string]string),
			cancels:  make(map[string]*atomic.Bool),
		},
	}
}

// Cancel requests cooperative cancellation of a running job. Batches already
// in flight finish; no new batch starts. The job lands in
// partially_completed with whatever was durably stored.
func (e *Engine) Cancel(jobID string) error {
	e.reg.mu.Lock()
	defer e.reg.mu.Unlock()
	flag, ok := e.reg.cancels[jobID]
	if !ok {
		return ErrJobNotCancelable
	}
	flag.Store(true)
	return nil
}

// documentChunks is one document's pipeline output awaiting embedding.
type documentChunks struct {
	document models.Document
	chunks   []models.Chunk
}

// Run executes one ingestion job to its terminal status. The error return
// covers dispatch-level problems (busy documents, persistence); per-chunk
// failures are recorded on the job, not returned.
func (e *Engine) Run(ctx context.Context, job *models.IngestionJob, docs []models.Document) error {
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	if err := e.acquire(job, docs); err != nil {
		return err
	}
	defer e.release(job, docs)

	cancelled := e.cancelFlag(job.ID)

	now := time.Now().UTC()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	if err := e.persist(ctx, job); err != nil {
		return err
	}
	e.report(ctx, job)

	// Phase one: fetch, detect, extract and chunk every document
	// sequentially, so the total chunk count is known before any embedding
	// starts and progress can be reported against a fixed denominator.
	var prepared []documentChunks
	for _, doc := range docs {
		dc, failure := e.prepareDocument(ctx, doc)
		if failure != nil {
			job.Failures = append(job.Failures, *failure)
			continue
		}
		prepared = append(prepared, dc)
	}

	for _, dc := range prepared {
		job.TotalCount += len(dc.chunks)
	}

	if len(prepared) == 0 {
		return e.finish(ctx, job, models.JobStatusFailed, "no document could be prepared")
	}

	// Re-ingestion supersedes: clear prior chunks for each document that is
	// about to be written.
	for _, dc := range prepared {
		if err := e.cfg.Sink.DeleteDocument(ctx, dc.document.ID); err != nil {
			e.logger.Warn().Err(err).Str("document_id", dc.document.ID).
				Msg("Failed to clear prior chunks before re-ingestion")
		}
	}

	// Phase two: embed and store in bounded concurrent batches.
	for _, dc := range prepared {
		if err := e.embedDocument(ctx, job, dc, cancelled); err != nil {
			if errors.Is(err, errJobCancelled) {
				return e.finish(ctx, job, models.JobStatusPartiallyCompleted, "cancelled by caller")
			}
			return err
		}
	}

	if len(job.Failures) == 0 {
		return e.finish(ctx, job, models.JobStatusCompleted, "")
	}
	if succeededChunks(job) > 0 {
		return e.finish(ctx, job, models.JobStatusPartiallyCompleted,
			fmt.Sprintf("%d of %d chunks failed", chunkFailures(job), job.TotalCount))
	}
	return e.finish(ctx, job, models.JobStatusFailed, "all chunks failed")
}

// prepareDocument runs the pre-embedding stages for one document. A failure
// at any stage fails the whole document, reported with ordinal -1.
func (e *Engine) prepareDocument(ctx context.Context, doc models.Document) (documentChunks, *models.ChunkFailure) {
	data, err := e.cfg.Fetcher.Fetch(ctx, doc.SourceLocator)
	if err != nil {
		e.logger.Error().Err(err).Str("document_id", doc.ID).Msg("Failed to fetch document bytes")
		return documentChunks{}, &models.ChunkFailure{
			DocumentID: doc.ID, Ordinal: -1, Stage: models.StageExtraction, Cause: err.Error(),
		}
	}

	category := e.cfg.Detector.Detect(doc.SourceLocator, doc.DeclaredType)
	if category == models.CategoryUnknown {
		e.logger.Error().Str("document_id", doc.ID).Str("locator", doc.SourceLocator).
			Msg("Could not determine document type")
		return documentChunks{}, &models.ChunkFailure{
			DocumentID: doc.ID, Ordinal: -1, Stage: models.StageDetection, Cause: "unknown document type",
		}
	}

	extractor, ok := e.cfg.Extractors[category]
	if !ok {
		return documentChunks{}, &models.ChunkFailure{
			DocumentID: doc.ID, Ordinal: -1, Stage: models.StageDetection,
			Cause: fmt.Sprintf("no extractor for category %s", category),
		}
	}

	e.logger.Info().Str("document_id", doc.ID).Str("category", string(category)).Msg("Extracting document")
	units, err := extractor.Extract(ctx, data)
	if err != nil {
		e.logger.Error().Err(err).Str("document_id", doc.ID).Msg("Extraction failed")
		return documentChunks{}, &models.ChunkFailure{
			DocumentID: doc.ID, Ordinal: -1, Stage: models.StageExtraction, Cause: err.Error(),
		}
	}

	chunks := e.cfg.Chunker.Chunk(doc.ID, category, units, e.cfg.StrategyOverride)
	e.logger.Info().Str("document_id", doc.ID).Int("units", len(units)).Int("chunks", len(chunks)).
		Msg("Chunked document")

	return documentChunks{document: doc, chunks: chunks}, nil
}

// embedDocument runs the embedding and storage stages over one document's
// chunks in batches. The cancel flag is checked between batches only, so an
// in-flight batch always completes and its writes stay durable.
func (e *Engine) embedDocument(
	ctx context.Context,
	job *models.IngestionJob,
	dc documentChunks,
	cancelled *atomic.Bool,
) error {
	batchSize := e.cfg.Embedder.MaxBatchSize()
	if e.cfg.Concurrency > 0 && e.cfg.Concurrency < batchSize {
		batchSize = e.cfg.Concurrency
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(dc.chunks); start += batchSize {
		if cancelled.Load() {
			e.logger.Info().Str("job_id", job.ID).Str("document_id", dc.document.ID).
				Msg("Cancellation requested, stopping before next batch")
			return errJobCancelled
		}

		end := start + batchSize
		if end > len(dc.chunks) {
			end = len(dc.chunks)
		}
		batch := dc.chunks[start:end]

		results := e.embedBatch(ctx, batch)

		var embedded []models.EmbeddedChunk
		for _, res := range results {
			if res.Err != nil {
				job.Failures = append(job.Failures, models.ChunkFailure{
					DocumentID: dc.document.ID,
					Ordinal:    res.Chunk.Ordinal,
					Stage:      models.StageEmbedding,
					Cause:      res.Err.Error(),
				})
				continue
			}
			embedded = append(embedded, models.EmbeddedChunk{
				DocumentID:           dc.document.ID,
				KnowledgeBaseID:      dc.document.KnowledgeBaseID,
				Ordinal:              res.Chunk.Ordinal,
				Text:                 res.Chunk.Text,
				TokenCount:           res.Chunk.TokenCount,
				IsAbstract:           res.Chunk.IsAbstract,
				OversizeUnresolvable: res.Chunk.OversizeUnresolvable,
				Model:                e.cfg.Embedder.ModelName(),
				Vector:               res.Vector,
			})
		}

		if len(embedded) > 0 {
			if err := e.storeWithRetry(ctx, embedded); err != nil {
				e.logger.Error().Err(err).Str("document_id", dc.document.ID).
					Msg("Failed to store embedded chunks")
				for _, ec := range embedded {
					job.Failures = append(job.Failures, models.ChunkFailure{
						DocumentID: dc.document.ID,
						Ordinal:    ec.Ordinal,
						Stage:      models.StageStorage,
						Cause:      err.Error(),
					})
				}
			}
		}

		// Progress only moves forward: every chunk in the batch is now
		// either stored or recorded as failed.
		job.ProcessedCount += len(batch)
		if job.TotalCount > 0 {
			job.Progress = float64(job.ProcessedCount) / float64(job.TotalCount)
		}
		if err := e.persist(ctx, job); err != nil {
			return err
		}
		e.report(ctx, job)
	}

	return nil
}

// embedBatch embeds one batch of chunks concurrently. Results come back in
// batch order regardless of completion order; a failed chunk is a value in
// its slot, never a missing entry.
func (e *Engine) embedBatch(ctx context.Context, batch []models.Chunk) []interfaces.EmbedResult {
	results := make([]interfaces.EmbedResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i := range batch {
		i := i
		g.Go(func() error {
			chunk := &batch[i]
			vector, err := e.embedWithRetry(gctx, chunk.Text)
			results[i] = interfaces.EmbedResult{Chunk: chunk, Vector: vector, Err: err}
			// Always nil: a chunk failure must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Engine) embedWithRetry(ctx context.Context, content string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.backoff(attempt)); err != nil {
				return nil, err
			}
		}
		vector, err := e.cfg.Embedder.Embed(ctx, content)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		e.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Embedding attempt failed")
	}
	return nil, lastErr
}

func (e *Engine) storeWithRetry(ctx context.Context, chunks []models.EmbeddedChunk) error {
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.backoff(attempt)); err != nil {
				return err
			}
		}
		err := e.cfg.Sink.Store(ctx, chunks)
		if err == nil {
			return nil
		}
		lastErr = err
		e.logger.Warn().Err(err).Int("attempt", attempt+1).Str("sink", e.cfg.Sink.Name()).
			Msg("Store attempt failed")
	}
	return lastErr
}

func (e *Engine) backoff(attempt int) time.Duration {
	return e.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// acquire reserves every document in the job, rejecting the whole job if any
// document already belongs to a running job.
func (e *Engine) acquire(job *models.IngestionJob, docs []models.Document) error {
	e.reg.mu.Lock()
	defer e.reg.mu.Unlock()

	for _, doc := range docs {
		if owner, busy := e.reg.inflight[doc.ID]; busy {
			e.logger.Error().Str("document_id", doc.ID).Str("owner_job", owner).
				Msg("Document already being processed")
			return ErrDocumentBusy
		}
	}
	for _, doc := range docs {
		e.reg.inflight[doc.ID] = job.ID
	}
	e.reg.cancels[job.ID] = &atomic.Bool{}
	return nil
}

func (e *Engine) release(job *models.IngestionJob, docs []models.Document) {
	e.reg.mu.Lock()
	defer e.reg.mu.Unlock()
	for _, doc := range docs {
		delete(e.reg.inflight, doc.ID)
	}
	delete(e.reg.cancels, job.ID)
}

func (e *Engine) cancelFlag(jobID string) *atomic.Bool {
	e.reg.mu.Lock()
	defer e.reg.mu.Unlock()
	return e.reg.cancels[jobID]
}

// finish moves the job to a terminal status, persists it and reports it.
func (e *Engine) finish(ctx context.Context, job *models.IngestionJob, status models.JobStatus, message string) error {
	now := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &now
	if message != "" {
		job.ErrorMessage = &message
	}

	e.logger.Info().Str("job_id", job.ID).Str("status", string(status)).
		Int("processed", job.ProcessedCount).Int("total", job.TotalCount).
		Int("failures", len(job.Failures)).Msg("Job finished")

	if err := e.persist(ctx, job); err != nil {
		return err
	}
	e.report(ctx, job)
	return nil
}

func (e *Engine) persist(ctx context.Context, job *models.IngestionJob) error {
	if e.cfg.Jobs == nil {
		return nil
	}
	if err := e.cfg.Jobs.Update(ctx, job); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job")
		return err
	}
	return nil
}

// report delivers a status update. Delivery is best-effort: a failed report
// is logged and never affects the job.
func (e *Engine) report(ctx context.Context, job *models.IngestionJob) {
	if e.cfg.Status == nil {
		return
	}
	update := models.StatusUpdate{
		JobID:          job.ID,
		Status:         job.Status,
		Progress:       job.Progress,
		ProcessedCount: job.ProcessedCount,
		TotalCount:     job.TotalCount,
		ErrorMessage:   job.ErrorMessage,
		At:             time.Now().UTC(),
	}
	if err := e.cfg.Status.Report(ctx, update); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Status report failed")
	}
}

// chunkFailures counts per-chunk failures, excluding whole-document failures
// recorded with ordinal -1, which never enter the processed count.
func chunkFailures(job *models.IngestionJob) int {
	n := 0
	for _, f := range job.Failures {
		if f.Ordinal >= 0 {
			n++
		}
	}
	return n
}

func succeededChunks(job *models.IngestionJob) int {
	return job.ProcessedCount - chunkFailures(job)
}
