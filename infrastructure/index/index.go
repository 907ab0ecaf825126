package index

import (
	"log/slog"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/internal/database"
)

// New returns the vector index matching the database driver: pgvector
// ranking for PostgreSQL, in-memory exact scan for SQLite.
func New(db database.Database, collection string, logger *slog.Logger) document.VectorIndex {
	if db.IsPostgres() {
		return NewPostgresIndex(db, collection, logger)
	}
	return NewSQLiteIndex(db, collection, logger)
}
