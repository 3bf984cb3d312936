package schedule

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{name: "valid expression", config: map[string]any{"cron": "*/5 * * * *"}},
		{name: "missing expression", config: map[string]any{}, wantErr: true},
		{name: "garbage expression", config: map[string]any{"cron": "every tuesday"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSource(tt.config, slog.Default()).Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSource_EmitsScheduleEvents(t *testing.T) {
	source := NewSource(map[string]any{
		"cron":       "* * * * *",
		"branch":     "main",
		"repository": "org/repo",
	}, slog.Default())

	var (
		mu       sync.Mutex
		received []models.Event
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- source.Start(ctx, func(_ context.Context, event models.Event) error {
			mu.Lock()
			defer mu.Unlock()

			received = append(received, event)
			cancel()

			return nil
		})
	}()

	// A one-minute tick is too slow for a test; fire the job directly.
	time.Sleep(50 * time.Millisecond)

	for _, entry := range source.cron.Entries() {
		entry.Job.Run()
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, received)
	assert.Equal(t, models.EventTypeSchedule, received[0].Type)
	assert.Equal(t, "main", received[0].Branch)
	assert.Equal(t, "org/repo", received[0].Repository)
	assert.Equal(t, "* * * * *", received[0].Payload["cron"])
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	_, err := NewSourceFactory().Create(map[string]any{}, slog.Default())
	require.ErrorIs(t, err, ErrCronMissing)
}
