package chunkers

import (
	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Chunker applies a structural strategy to a document's logical units and
// normalizes the result against the token budget.
type Chunker struct {
	tok    *Tokenizer
	opts   Options
	logger zerolog.Logger
}

func NewChunker(opts Options) (*Chunker, error) {
	opts = opts.withDefaults()
	tok, err := NewTokenizer(opts.TokenizerName)
	if err != nil {
		return nil, err
	}
	return &Chunker{
		tok:    tok,
		opts:   opts,
		logger: util.NewLogger(util.LevelFromEnv()),
	}, nil
}

// Tokenizer exposes the underlying token counter.
func (c *Chunker) Tokenizer() *Tokenizer {
	return c.tok
}

// Chunk runs strategy selection (or the override, when non-nil), the
// selected strategy, and budget normalization. Ordinals are assigned here
// and preserved through embedding and storage.
func (c *Chunker) Chunk(
	documentID string,
	category models.Category,
	units []models.LogicalUnit,
	override *Kind,
) []models.Chunk {
	kind := Select(category, units)
	if override != nil {
		kind = *override
	}

	s := newSplitter(c.tok, c.opts)
	raw := strategies[kind](units, s, c.opts)
	normalized := c.normalize(raw, s)

	for i := range normalized {
		normalized[i].ID = uuid.New().String()
		normalized[i].DocumentID = documentID
		normalized[i].Ordinal = i
	}

	c.logger.Debug().
		Str("document_id", documentID).
		Str("strategy", kind.String()).
		Int("unit_count", len(units)).
		Int("chunk_count", len(normalized)).
		Msg("chunked document")

	return normalized
}

// normalize enforces the token budget: non-atomic oversized chunks are
// re-split at descending delimiter priority; atomic ones pass through with
// the oversize flag set, since documents must not silently lose content.
func (c *Chunker) normalize(chunks []models.Chunk, s *splitter) []models.Chunk {
	var out []models.Chunk
	for _, chunk := range chunks {
		if chunk.TokenCount <= c.opts.TokenBudget {
			out = append(out, chunk)
			continue
		}

		if chunk.Atomic {
			chunk.OversizeUnresolvable = true
			c.logger.Warn().
				Int("token_count", chunk.TokenCount).
				Int("budget", c.opts.TokenBudget).
				Msg("atomic chunk exceeds token budget, storing anyway")
			out = append(out, chunk)
			continue
		}

		var pieces []piece
		for _, fragment := range s.fragments(chunk.Text) {
			pieces = append(pieces, piece{text: fragment})
		}
		for _, split := range s.accumulate(pieces, c.opts.MergeThreshold) {
			split.IsAbstract = chunk.IsAbstract
			split.SourceUnits = chunk.SourceUnits
			out = append(out, split)
		}
	}
	return out
}
