package extractors

import (
	"errors"
	"fmt"

	"github.com/docstone/ingest-go/internal/manager/models"
)

var (
	ErrEmptyDocument  = errors.New("document contains no extractable content")
	ErrCorruptFile    = errors.New("file is corrupt or not in the expected format")
	ErrEncryptedFile  = errors.New("file is password-protected")
	ErrNoExtractor    = errors.New("no extractor registered for category")
	ErrInvalidRowsCap = errors.New("rows per unit must be positive")
)

// ExtractionError is a format-specific parse failure carrying a
// human-readable cause. The orchestrator fails the whole document when this
// is returned; sub-unit problems are handled by the empty-unit policy
// instead.
type ExtractionError struct {
	Category models.Category
	Cause    string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s document: %s: %v", e.Category, e.Cause, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s document: %s", e.Category, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func newExtractionError(category models.Category, cause string, err error) *ExtractionError {
	return &ExtractionError{Category: category, Cause: cause, Err: err}
}
