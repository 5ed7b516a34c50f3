package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PresentationExtractor emits one logical unit per slide. When a slide has
// speaker notes, the notes text is appended to the slide's text within the
// same unit, so a slide and its notes always travel together.
type PresentationExtractor struct {
	logger zerolog.Logger
}

func NewPresentationExtractor() *PresentationExtractor {
	return &PresentationExtractor{logger: util.NewLogger(util.LevelFromEnv())}
}

func (e *PresentationExtractor) Category() models.Category {
	return models.CategoryPresentation
}

func (e *PresentationExtractor) Extract(ctx context.Context, data []byte) ([]models.LogicalUnit, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newExtractionError(models.CategoryPresentation, "not a valid pptx archive", err)
	}

	slideNumbers := make([]int, 0)
	for _, file := range archive.File {
		match := slidePattern.FindStringSubmatch(file.Name)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		slideNumbers = append(slideNumbers, n)
	}
	if len(slideNumbers) == 0 {
		return nil, newExtractionError(models.CategoryPresentation, "presentation has no slides", ErrEmptyDocument)
	}
	sort.Ints(slideNumbers)

	units := make([]models.LogicalUnit, 0, len(slideNumbers))
	for i, n := range slideNumbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slideXML, err := readArchiveFile(archive, fmt.Sprintf("ppt/slides/slide%d.xml", n))
		if err != nil {
			return nil, newExtractionError(models.CategoryPresentation, fmt.Sprintf("cannot read slide %d", n), err)
		}
		text, err := drawingMLText(slideXML)
		if err != nil {
			return nil, newExtractionError(models.CategoryPresentation, fmt.Sprintf("malformed slide %d", n), err)
		}

		// Speaker notes live in a sibling part; absence is normal.
		notesXML, err := readArchiveFile(archive, fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n))
		if err == nil {
			notes, err := drawingMLText(notesXML)
			if err != nil {
				e.logger.Warn().Err(err).Int("slide", n).Msg("skipping malformed speaker notes")
			} else if notes != "" {
				if text != "" {
					text += "\n"
				}
				text += notes
			}
		}

		units = append(units, models.LogicalUnit{
			Ordinal: i,
			Text:    text,
			Role:    models.RoleBody,
			Page:    n,
		})
	}

	return units, nil
}

// drawingMLText collects the text runs (a:t) of one slide or notes part,
// one line per DrawingML paragraph (a:p).
func drawingMLText(part []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(part))

	var lines []string
	var line strings.Builder
	inParagraph := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				line.Reset()
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return "", err
				}
				if inParagraph {
					line.WriteString(text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if trimmed := strings.TrimSpace(line.String()); trimmed != "" {
					lines = append(lines, trimmed)
				}
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
