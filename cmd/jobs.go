package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/docstone/ingest-go/internal/manager/repository"
	"github.com/docstone/ingest-go/pkg/db"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect ingestion jobs",
	Long:  `Inspect retained ingestion job records - list and get status.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingestion jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.ErrorLevel)

		database, err := db.NewConnection()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()

		repo := repository.NewJobRepository(database)
		jobs, err := repo.List(cmd.Context())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to list jobs")
		}

		if len(jobs) == 0 {
			logger.Info().Msg("No jobs found")
			return
		}

		jsonOutput, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to marshal JSON")
		}
		logger.Info().RawJSON("jobs", jsonOutput).Msg("Jobs retrieved successfully")
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get an ingestion job by ID",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := util.NewLogger(zerolog.InfoLevel)

		database, err := db.NewConnection()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer func(database *db.DB) {
			if err := database.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close database connection")
			}
		}(database)

		repo := repository.NewJobRepository(database)
		job, err := repo.GetByID(cmd.Context(), args[0])
		if errors.Is(err, repository.ErrJobNotFound) {
			logger.Error().Str("job_id", args[0]).Msg("Job not found")
			os.Exit(1)
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to get job")
		}

		jsonOutput, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to marshal JSON")
		}
		logger.Info().RawJSON("job", jsonOutput).Str("job_id", args[0]).Msg("Job retrieved successfully")
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
}
