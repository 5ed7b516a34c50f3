package db

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/tursodatabase/libsql-client-go/libsql"
)

var (
	ErrDatabaseURLRequired = errors.New("TURSO_DATABASE_URL environment variable is required")
	ErrAuthTokenRequired   = errors.New("TURSO_AUTH_TOKEN environment variable is required")
)

// DB wraps the libSQL connection used for job records and embedded chunks.
type DB struct {
	*sql.DB
}

func NewConnection() (*DB, error) {
	dbURL := os.Getenv("TURSO_DATABASE_URL")
	logger := util.NewLogger(zerolog.ErrorLevel)
	if strings.EqualFold(dbURL, "") {
		logger.Error().Msg("TURSO_DATABASE_URL env variable not set")
		return nil, ErrDatabaseURLRequired
	}

	authToken := os.Getenv("TURSO_AUTH_TOKEN")
	if strings.EqualFold(authToken, "") {
		logger.Error().Msg("TURSO_AUTH_TOKEN env variable not set")
		return nil, ErrAuthTokenRequired
	}

	connector, err := libsql.NewConnector(dbURL, libsql.WithAuthToken(authToken))
	if err != nil {
		logger.Err(err).Msg("failed to create connector")
		return nil, err
	}

	database := sql.OpenDB(connector)
	if err := database.Ping(); err != nil {
		logger.Err(err).Msg("failed to ping database")
		return nil, err
	}

	return &DB{DB: database}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Connect is an alias for NewConnection for callers that want a bare *sql.DB.
func Connect() (*sql.DB, error) {
	wrapper, err := NewConnection()
	if err != nil {
		return nil, err
	}
	return wrapper.DB, nil
}
