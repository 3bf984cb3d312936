package webhook

import (
	"log/slog"

	"github.com/conduitci/conduit/pkg/protocol"
)

// SourceFactory creates webhook sources.
type SourceFactory struct{}

func NewSourceFactory() *SourceFactory {
	return &SourceFactory{}
}

func (*SourceFactory) ID() string {
	return "webhook"
}

func (*SourceFactory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := NewSource(config, logger)
	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}
