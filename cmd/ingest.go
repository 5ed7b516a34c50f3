package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/docstone/ingest-go/internal/manager/chunkers"
	"github.com/docstone/ingest-go/internal/manager/detect"
	"github.com/docstone/ingest-go/internal/manager/embedders"
	"github.com/docstone/ingest-go/internal/manager/extractors"
	"github.com/docstone/ingest-go/internal/manager/interfaces"
	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/internal/manager/repository"
	"github.com/docstone/ingest-go/internal/manager/services"
	"github.com/docstone/ingest-go/internal/manager/sink"
	"github.com/docstone/ingest-go/pkg/db"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	embeddingModel string
	chunkStrategy  string
	sinkBackend    string
	knowledgeBase  string
	webhookURL     string
	tokenBudget    int
	concurrency    int
	maxRows        int
	ingestTimeout  time.Duration
)

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the vector store",
	Long: `Detect, extract, chunk, embed and store one or more documents. A directory
argument ingests every supported file inside it as one batch job.

Examples:
  # Ingest a single document
  ingest-go ingest ./docs/whitepaper.pdf

  # Ingest a directory as one job, forcing the paper strategy
  ingest-go ingest ./papers --strategy paper

  # Ingest into Postgres/pgvector with a larger budget
  ingest-go ingest ./manual.docx --sink pgvector --budget 1024`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&embeddingModel, "model", "m", "text-embedding-3-small", "Embedding model to use")
	ingestCmd.Flags().StringVarP(&chunkStrategy, "strategy", "s", "", "Force a chunking strategy (naive, paper, book, presentation, qa, manual)")
	ingestCmd.Flags().StringVar(&sinkBackend, "sink", "libsql", "Vector sink backend (libsql, pgvector)")
	ingestCmd.Flags().StringVarP(&knowledgeBase, "kb", "k", "", "Knowledge base the documents belong to")
	ingestCmd.Flags().StringVar(&webhookURL, "webhook", "", "URL to POST status updates to")
	ingestCmd.Flags().IntVarP(&tokenBudget, "budget", "b", 0, "Token budget per chunk (0 uses the default)")
	ingestCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Concurrent embedding calls (0 uses the model's bound)")
	ingestCmd.Flags().IntVar(&maxRows, "max-rows", 100, "Row cap for CSV and JSON extraction")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 15*time.Minute, "Timeout for the whole job")
}

func runIngest(_ *cobra.Command, args []string) {
	logger := util.NewLogger(zerolog.InfoLevel)

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	docs, err := collectDocuments(args)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to collect documents")
	}
	if len(docs) == 0 {
		logger.Fatal().Msg("No supported documents found")
	}

	var override *chunkers.Kind
	if chunkStrategy != "" {
		kind, err := chunkers.ParseKind(chunkStrategy)
		if err != nil {
			logger.Fatal().Err(err).Str("strategy", chunkStrategy).Msg("Unknown chunking strategy")
		}
		override = &kind
	}

	embedder, err := embedders.NewOpenAIEmbedder(embeddingModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create embedder")
	}

	opts := chunkers.DefaultOptions()
	if tokenBudget > 0 {
		opts.TokenBudget = tokenBudget
	}
	chunker, err := chunkers.NewChunker(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create chunker")
	}

	database, err := db.NewConnection()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func(database *db.DB) {
		if err := database.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}(database)

	vectorSink, err := buildSink(ctx, database)
	if err != nil {
		logger.Fatal().Err(err).Str("sink", sinkBackend).Msg("Failed to create vector sink")
	}

	var status interfaces.StatusSink
	if webhookURL != "" {
		status = services.NewWebhookStatusSink(webhookURL, nil)
	}

	engine := services.NewEngine(services.EngineConfig{
		Detector:         detect.NewDetector(),
		Extractors:       extractors.Defaults(maxRows),
		Chunker:          chunker,
		Embedder:         embedder,
		Sink:             vectorSink,
		Jobs:             repository.NewJobRepository(database),
		Status:           status,
		Fetcher:          services.NewLocalFetcher(""),
		StrategyOverride: override,
		Concurrency:      concurrency,
	})
	dispatcher := services.NewDispatcher(engine, repository.NewJobRepository(database))

	handle, err := dispatcher.Dispatch(ctx, docs)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to dispatch ingestion job")
	}
	logger.Info().Str("job_id", handle.JobID).Int("documents", len(docs)).Msg("Job dispatched")

	for update := range handle.Updates {
		logger.Info().
			Str("job_id", update.JobID).
			Str("status", string(update.Status)).
			Float64("progress", update.Progress).
			Int("processed", update.ProcessedCount).
			Int("total", update.TotalCount).
			Msg("Progress")
		if update.Status == models.JobStatusFailed && update.ErrorMessage != nil {
			logger.Error().Str("error", *update.ErrorMessage).Msg("Job failed")
		}
	}

	logger.Info().Str("job_id", handle.JobID).Msg("Ingestion finished")
}

func buildSink(ctx context.Context, database *db.DB) (interfaces.VectorSink, error) {
	if sinkBackend == "pgvector" {
		return sink.NewPgVectorSink(ctx)
	}
	return sink.NewLibSQLSink(database), nil
}

// collectDocuments expands the path arguments into documents. Directories
// contribute every file whose type the detector recognizes.
func collectDocuments(paths []string) ([]models.Document, error) {
	detector := detect.NewDetector()
	var docs []models.Document

	addFile := func(path string, size int64) {
		docs = append(docs, models.Document{
			ID:              uuid.New().String(),
			SourceLocator:   path,
			ByteSize:        size,
			KnowledgeBaseID: knowledgeBase,
			CreatedAt:       time.Now().UTC(),
		})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			// An explicitly named file goes in as-is; an unknown type
			// surfaces as a job failure rather than a silent skip.
			addFile(path, info.Size())
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if detector.Detect(p, nil) == models.CategoryUnknown {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			addFile(p, fi.Size())
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return docs, nil
}
