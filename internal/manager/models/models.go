package models

import (
	"time"
)

// Category is the closed set of document formats the pipeline understands.
type Category string

const (
	CategoryPDF          Category = "pdf"
	CategoryDocx         Category = "docx"
	CategoryPresentation Category = "presentation"
	CategoryPlainText    Category = "plain_text"
	CategoryCSV          Category = "csv"
	CategoryJSON         Category = "json"
	CategoryMarkdown     Category = "markdown"
	CategoryHTML         Category = "html"
	CategoryUnknown      Category = "unknown"
)

// JobStatus is the ingestion job lifecycle. Transitions are one-directional:
// pending -> processing -> {completed, partially_completed, failed}.
type JobStatus string

const (
	JobStatusPending            JobStatus = "pending"
	JobStatusProcessing         JobStatus = "processing"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusPartiallyCompleted JobStatus = "partially_completed"
	JobStatusFailed             JobStatus = "failed"
)

// Terminal reports whether no further transition may leave this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartiallyCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving to the given status is legal.
func (s JobStatus) CanTransition(to JobStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to.Terminal()
	default:
		return false
	}
}

// Document is a source file submitted for ingestion. The pipeline references
// it but never owns or deletes the underlying bytes.
type Document struct {
	ID              string    `json:"id"`
	SourceLocator   string    `json:"source_locator"`
	DeclaredType    *string   `json:"declared_type,omitempty"`
	ByteSize        int64     `json:"byte_size"`
	KnowledgeBaseID string    `json:"knowledge_base_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// FailureStage identifies which pipeline stage a per-chunk failure came from.
type FailureStage string

const (
	StageExtraction FailureStage = "extraction"
	StageEmbedding  FailureStage = "embedding"
	StageStorage    FailureStage = "storage"
	StageDetection  FailureStage = "detection"
)

// ChunkFailure records one permanently failed chunk (or whole-document
// failure when Ordinal is negative) with its cause.
type ChunkFailure struct {
	DocumentID string       `json:"document_id"`
	Ordinal    int          `json:"ordinal"`
	Stage      FailureStage `json:"stage"`
	Cause      string       `json:"cause"`
}

// IngestionJob is one pipeline run over one document or a batch of documents.
// It is created at dispatch time, mutated only by the orchestrator, and
// retained after completion for audit and status queries.
type IngestionJob struct {
	ID              string         `json:"id"`
	DocumentIDs     []string       `json:"document_ids"`
	KnowledgeBaseID string         `json:"knowledge_base_id"`
	Status          JobStatus      `json:"status"`
	Progress        float64        `json:"progress"`
	ProcessedCount  int            `json:"processed_count"`
	TotalCount      int            `json:"total_count"`
	ErrorMessage    *string        `json:"error_message,omitempty"`
	Failures        []ChunkFailure `json:"failures,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// UnitRole tags the structural role of a logical unit within its document.
type UnitRole string

const (
	RoleTitle    UnitRole = "title"
	RoleHeading  UnitRole = "heading"
	RoleBody     UnitRole = "body"
	RoleTable    UnitRole = "table"
	RoleAbstract UnitRole = "abstract"
)

// LogicalUnit is a format-specific unit of extracted content: a PDF page, a
// slide, a paragraph, a row group. It exists only within one extraction pass.
type LogicalUnit struct {
	Ordinal int      `json:"ordinal"`
	Text    string   `json:"text"`
	Role    UnitRole `json:"role"`
	// Page is the source page or slide number, zero when not applicable.
	Page int `json:"page"`
}

// Empty reports whether the unit carries no extractable text, e.g. a scanned
// PDF page. Downstream chunking skips empty units.
func (u LogicalUnit) Empty() bool {
	for _, r := range u.Text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// Chunk is a finalized, token-bounded unit of text destined for embedding.
// Atomic chunks (slides, Q&A pairs, tables) are never split regardless of
// size; when such a chunk still exceeds the budget it is flagged
// OversizeUnresolvable and stored anyway rather than losing content.
type Chunk struct {
	ID                   string `json:"id"`
	DocumentID           string `json:"document_id"`
	Ordinal              int    `json:"ordinal"`
	Text                 string `json:"text"`
	TokenCount           int    `json:"token_count"`
	Atomic               bool   `json:"atomic"`
	IsAbstract           bool   `json:"is_abstract"`
	OversizeUnresolvable bool   `json:"oversize_unresolvable"`
	// SourceUnits holds the ordinals of the logical units this chunk
	// derives from.
	SourceUnits []int `json:"source_units,omitempty"`
}

// EmbeddedChunk is a chunk plus its vector representation, as persisted.
type EmbeddedChunk struct {
	DocumentID           string    `json:"document_id"`
	KnowledgeBaseID      string    `json:"knowledge_base_id"`
	Ordinal              int       `json:"ordinal"`
	Text                 string    `json:"text"`
	TokenCount           int       `json:"token_count"`
	IsAbstract           bool      `json:"is_abstract"`
	OversizeUnresolvable bool      `json:"oversize_unresolvable"`
	Model                string    `json:"model"`
	Vector               []float32 `json:"vector"`
}

// StatusUpdate is the payload reported to the calling system on each
// meaningful progress increment and on terminal transition. Delivery is
// best-effort and never affects the job outcome.
type StatusUpdate struct {
	JobID          string    `json:"job_id"`
	Status         JobStatus `json:"status"`
	Progress       float64   `json:"progress"`
	ProcessedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	At             time.Time `json:"at"`
}
