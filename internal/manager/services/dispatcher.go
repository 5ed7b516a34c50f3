package services

import (
	"context"
	"time"

	"github.com/docstone/ingest-go/internal/manager/interfaces"
	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JobHandle is what a caller gets back from a dispatch: the job id for later
// audit queries, a channel of status updates, and a cancel function. The
// caller never blocks on the job itself.
type JobHandle struct {
	JobID   string
	Updates <-chan models.StatusUpdate
	Cancel  func()
}

// Dispatcher starts ingestion jobs asynchronously on an Engine.
type Dispatcher struct {
	engine *Engine
	jobs   interfaces.JobStore
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. The job store may be nil when job
// records are not retained.
func NewDispatcher(engine *Engine, jobs interfaces.JobStore) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		jobs:   jobs,
		logger: util.NewLogger(util.LevelFromEnv()),
	}
}

// Dispatch creates a pending job for the documents and starts it in the
// background. The returned handle's update channel closes when the job
// reaches a terminal status.
func (d *Dispatcher) Dispatch(ctx context.Context, docs []models.Document) (*JobHandle, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	documentIDs := make([]string, len(docs))
	knowledgeBase := ""
	for i, doc := range docs {
		documentIDs[i] = doc.ID
		if knowledgeBase == "" {
			knowledgeBase = doc.KnowledgeBaseID
		}
	}

	job := &models.IngestionJob{
		ID:              uuid.New().String(),
		DocumentIDs:     documentIDs,
		KnowledgeBaseID: knowledgeBase,
		Status:          models.JobStatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	if d.jobs != nil {
		if err := d.jobs.Create(ctx, job); err != nil {
			d.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to create job record")
			return nil, err
		}
	}

	channelSink := NewChannelStatusSink(len(docs) * 8)
	handle := &JobHandle{
		JobID:   job.ID,
		Updates: channelSink.Updates(),
		Cancel: func() {
			if err := d.engine.Cancel(job.ID); err != nil {
				d.logger.Debug().Err(err).Str("job_id", job.ID).Msg("Cancel request ignored")
			}
		},
	}

	// The job outlives the dispatch call, so it runs on a context detached
	// from the caller's cancellation. Cancellation goes through the handle.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer channelSink.Close()

		runEngine := d.engine.withExtraStatusSink(channelSink)
		if err := runEngine.Run(runCtx, job, docs); err != nil {
			d.logger.Error().Err(err).Str("job_id", job.ID).Msg("Job run failed")
		}
	}()

	d.logger.Info().Str("job_id", job.ID).Int("documents", len(docs)).Msg("Dispatched ingestion job")
	return handle, nil
}

// withExtraStatusSink returns a shallow engine copy that also reports to the
// given sink. Inflight bookkeeping is shared with the original engine.
func (e *Engine) withExtraStatusSink(sink interfaces.StatusSink) *Engine {
	clone := &Engine{
		cfg:    e.cfg,
		logger: e.logger,
		reg:    e.reg,
	}
	if clone.cfg.Status != nil {
		clone.cfg.Status = NewMultiStatusSink(clone.cfg.Status, sink)
	} else {
		clone.cfg.Status = sink
	}
	return clone
}
