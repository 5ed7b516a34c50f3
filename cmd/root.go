package cmd

import (
	"github.com/docstone/ingest-go/pkg/util"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ingest-go",
	Short: "A CLI tool for ingesting documents into a vector store",
	Long:  `ingest-go detects, extracts, chunks and embeds documents, then stores the chunks in a vector sink.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger := util.NewLogger(zerolog.ErrorLevel)
		logger.Fatal().Err(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	logger := util.NewLogger(zerolog.ErrorLevel)
	err := godotenv.Load()
	if err != nil {
		logger.Warn().Msg("No .env file found")
	}
}
