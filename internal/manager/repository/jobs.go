package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/db"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

var ErrJobNotFound = errors.New("ingestion job not found")

const timeFormat = "2006-01-02T15:04:05Z"

// JobRepository persists ingestion jobs in libSQL. Jobs are retained after
// completion for audit and status queries.
type JobRepository struct {
	db     *db.DB
	logger zerolog.Logger
}

func NewJobRepository(database *db.DB) *JobRepository {
	logger := util.NewLogger(zerolog.ErrorLevel)
	return &JobRepository{
		db:     database,
		logger: logger,
	}
}

func (r *JobRepository) Create(ctx context.Context, job *models.IngestionJob) error {
	query := `
		INSERT INTO ingestion_jobs (id, document_ids, knowledge_base, status, progress,
		                            processed_count, total_count, error_message, failures,
		                            created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	documentIDs, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal document ids")
		return err
	}
	failures, err := marshalFailures(job.Failures)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal failures")
		return err
	}

	_, err = r.db.ExecContext(ctx, query, job.ID, string(documentIDs), job.KnowledgeBaseID,
		string(job.Status), job.Progress, job.ProcessedCount, job.TotalCount,
		job.ErrorMessage, failures,
		job.CreatedAt.Format(timeFormat), formatTimePtr(job.StartedAt), formatTimePtr(job.CompletedAt))
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to create ingestion job")
	}
	return err
}

func (r *JobRepository) Update(ctx context.Context, job *models.IngestionJob) error {
	query := `
		UPDATE ingestion_jobs
		SET status = ?, progress = ?, processed_count = ?, total_count = ?,
		    error_message = ?, failures = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`

	failures, err := marshalFailures(job.Failures)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal failures")
		return err
	}

	_, err = r.db.ExecContext(ctx, query, string(job.Status), job.Progress,
		job.ProcessedCount, job.TotalCount, job.ErrorMessage, failures,
		formatTimePtr(job.StartedAt), formatTimePtr(job.CompletedAt), job.ID)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to update ingestion job")
	}
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.IngestionJob, error) {
	query := `
		SELECT id, document_ids, knowledge_base, status, progress, processed_count,
		       total_count, error_message, failures, created_at, started_at, completed_at
		FROM ingestion_jobs WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Error().Str("job_id", id).Msg("Ingestion job not found")
		return nil, ErrJobNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get ingestion job")
		return nil, err
	}

	return job, nil
}

func (r *JobRepository) List(ctx context.Context) ([]models.IngestionJob, error) {
	query := `
		SELECT id, document_ids, knowledge_base, status, progress, processed_count,
		       total_count, error_message, failures, created_at, started_at, completed_at
		FROM ingestion_jobs ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan ingestion job")
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.IngestionJob, error) {
	var (
		job          models.IngestionJob
		documentIDs  string
		status       string
		failures     sql.NullString
		errorMessage sql.NullString
		createdAt    string
		startedAt    sql.NullString
		completedAt  sql.NullString
	)

	err := row.Scan(&job.ID, &documentIDs, &job.KnowledgeBaseID, &status, &job.Progress,
		&job.ProcessedCount, &job.TotalCount, &errorMessage, &failures,
		&createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(documentIDs), &job.DocumentIDs); err != nil {
		return nil, err
	}
	if failures.Valid && failures.String != "" {
		if err := json.Unmarshal([]byte(failures.String), &job.Failures); err != nil {
			return nil, err
		}
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	job.Status = models.JobStatus(status)

	if job.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, err
	}
	if job.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, err
	}
	if job.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}

	return &job, nil
}

func marshalFailures(failures []models.ChunkFailure) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}
	data, err := json.Marshal(failures)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
