package chunkers

import (
	"errors"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
)

var ErrUnknownStrategy = errors.New("unknown chunking strategy")

// Kind is the closed set of structural chunking strategies. The set is known
// at compile time, so dispatch is a table over this enum rather than
// open-ended registration.
type Kind int

const (
	// KindNaive splits on the prioritized delimiter list and greedily
	// accumulates pieces up to the token budget.
	KindNaive Kind = iota

	// KindPaper isolates the abstract, extracts tables, and groups the rest
	// by top-level numbered headings.
	KindPaper

	// KindBook processes one chapter at a time, splitting within a chapter
	// by the delimiter priority list toward the target size.
	KindBook

	// KindPresentation emits one atomic chunk per slide.
	KindPresentation

	// KindQA pairs each question with its answer into one atomic chunk.
	KindQA

	// KindManual groups by headings like KindPaper, without abstract
	// detection.
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindNaive:
		return "naive"
	case KindPaper:
		return "paper"
	case KindBook:
		return "book"
	case KindPresentation:
		return "presentation"
	case KindQA:
		return "qa"
	case KindManual:
		return "manual"
	default:
		return "unknown"
	}
}

// ParseKind maps a strategy name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "naive":
		return KindNaive, nil
	case "paper":
		return KindPaper, nil
	case "book":
		return KindBook, nil
	case "presentation":
		return KindPresentation, nil
	case "qa":
		return KindQA, nil
	case "manual":
		return KindManual, nil
	default:
		return KindNaive, ErrUnknownStrategy
	}
}

// chunkFunc is one structural strategy: a pure function from logical units
// to chunks. Budget enforcement happens afterwards in the normalizer.
type chunkFunc func(units []models.LogicalUnit, s *splitter, opts Options) []models.Chunk

// strategies is the dispatch table over the closed Kind enum.
var strategies = map[Kind]chunkFunc{
	KindNaive:        chunkNaive,
	KindPaper:        chunkPaper,
	KindBook:         chunkBook,
	KindPresentation: chunkSlides,
	KindQA:           chunkQA,
	KindManual:       chunkManual,
}

// Select picks a strategy from the document category and the extracted
// structure. Book-like treatment cannot be told apart from manual-style
// heading grouping by content alone, so KindBook is only reachable through
// an explicit override.
func Select(category models.Category, units []models.LogicalUnit) Kind {
	if category == models.CategoryPresentation {
		return KindPresentation
	}

	nonEmpty := 0
	questions := 0
	headings := 0
	hasAbstract := false
	for i, unit := range units {
		if unit.Empty() {
			continue
		}
		nonEmpty++
		if isQuestion(unit.Text) {
			questions++
		}
		if unit.Role == models.RoleHeading || headingLevel(unit.Text) > 0 {
			headings++
		}
		if unit.Role == models.RoleAbstract || (i < 3 && looksLikeAbstract(unit.Text)) {
			hasAbstract = true
		}
	}

	const qaMinPairs = 2
	if questions >= qaMinPairs && nonEmpty > 0 && questions*3 >= nonEmpty {
		return KindQA
	}
	if headings > 0 {
		if hasAbstract {
			return KindPaper
		}
		return KindManual
	}
	return KindNaive
}
