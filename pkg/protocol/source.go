package protocol

import (
	"context"
	"log/slog"

	"github.com/conduitci/conduit/pkg/models"
)

// SourceCallback delivers an event produced by a source. Implementations
// typically publish the event onto the event bus.
type SourceCallback func(ctx context.Context, event models.Event) error

// Source is a long-running producer of events (webhook server, cron schedule,
// queue consumer). Start blocks until the context is cancelled or Stop is
// called.
type Source interface {
	Start(ctx context.Context, callback SourceCallback) error
	Stop(ctx context.Context) error
	Validate() error
}

// SourceFactory creates Source instances from configuration.
type SourceFactory interface {
	Create(config map[string]any, logger *slog.Logger) (Source, error)
	ID() string
}
