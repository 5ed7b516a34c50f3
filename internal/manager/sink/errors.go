package sink

import "errors"

var ErrDatabaseURLNotSet = errors.New("PGVECTOR_DATABASE_URL env variable not set")
