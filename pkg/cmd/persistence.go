package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/conduitci/conduit/pkg/persistence"
	"github.com/conduitci/conduit/pkg/persistence/file"
	"github.com/conduitci/conduit/pkg/persistence/postgresql"
)

// NewPersistence selects the storage backend from the database URL:
// postgres:// connects to PostgreSQL, anything else is a file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	}

	return file.NewPersistence(databaseURL), nil
}
