package parastore

import "errors"

// Errors returned by the Client.
var (
	// ErrNoDatabase indicates no database was configured.
	ErrNoDatabase = errors.New("no database configured: use WithSQLite or WithPostgres")

	// ErrClientClosed indicates the client has already been closed.
	ErrClientClosed = errors.New("client is closed")

	// ErrNoEmbeddingModel indicates no embedding provider was configured and
	// no local model files were found.
	ErrNoEmbeddingModel = errors.New("no embedding model available")
)
