// Package queue consumes events from a Redis list, for deployments where an
// upstream system enqueues push notifications instead of calling a webhook.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/protocol"
)

const (
	defaultList = "conduit:events"
	popTimeout  = 5 * time.Second
)

var ErrAddressMissing = errors.New("queue requires a redis address")

// Source blocks on BLPOP and decodes each list entry as a JSON event.
// Malformed entries are logged and dropped; the consumer keeps going.
type Source struct {
	address  string
	password string
	db       int
	list     string
	client   *redis.Client
	logger   *slog.Logger
}

func NewSource(config map[string]any, logger *slog.Logger) *Source {
	address, _ := config["address"].(string)
	password, _ := config["password"].(string)

	list, _ := config["list"].(string)
	if list == "" {
		list = defaultList
	}

	db := 0
	if d, ok := config["db"].(float64); ok {
		db = int(d)
	}

	return &Source{
		address:  address,
		password: password,
		db:       db,
		list:     list,
		logger:   logger.With("module", "queue_source", "list", list),
	}
}

func (s *Source) Validate() error {
	if s.address == "" {
		return ErrAddressMissing
	}

	return nil
}

// Start consumes the list until the context is cancelled.
func (s *Source) Start(ctx context.Context, callback protocol.SourceCallback) error {
	if err := s.Validate(); err != nil {
		return err
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:     s.address,
		Password: s.password,
		DB:       s.db,
	})

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", s.address, err)
	}

	s.logger.Info("Starting queue source", "address", s.address)

	for {
		select {
		case <-ctx.Done():
			return s.Stop(context.WithoutCancel(ctx))
		default:
		}

		entries, err := s.client.BLPop(ctx, popTimeout, s.list).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			if ctx.Err() != nil {
				return s.Stop(context.WithoutCancel(ctx))
			}

			return fmt.Errorf("failed to pop from %s: %w", s.list, err)
		}

		// BLPop returns [key, value].
		if len(entries) < 2 {
			continue
		}

		event, err := decodeEvent([]byte(entries[1]))
		if err != nil {
			s.logger.Warn("Dropping malformed queue entry", "error", err)

			continue
		}

		s.logger.Info("Queue event received", "event_id", event.ID, "event_type", event.Type)

		if err := callback(ctx, event); err != nil {
			s.logger.Error("Error delivering queue event", "event_id", event.ID, "error", err)
		}
	}
}

func (s *Source) Stop(_ context.Context) error {
	if s.client == nil {
		return nil
	}

	s.logger.Info("Stopping queue source")

	return s.client.Close()
}

func decodeEvent(data []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return models.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}

	if event.Type == "" {
		return models.Event{}, errors.New("event has no type")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	return event, nil
}
