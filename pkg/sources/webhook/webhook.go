// Package webhook runs an HTTP server that turns POSTed push notifications
// into events on the bus.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/protocol"
)

const (
	defaultPort     = 8085
	defaultPath     = "/hooks"
	readTimeout     = 30 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 1024 * 1024
)

var ErrInvalidPort = errors.New("webhook port must be between 1 and 65535")

// Source is a long-running webhook endpoint. A request to POST <path>/<type>
// becomes an Event of that type; the body supplies branch, repository and
// payload. GitHub-style bodies with a "ref" field are understood.
type Source struct {
	port     int
	path     string
	secret   string
	server   *http.Server
	callback protocol.SourceCallback
	logger   *slog.Logger
	mu       sync.Mutex
	started  bool
}

func NewSource(config map[string]any, logger *slog.Logger) *Source {
	port := defaultPort
	if p, ok := config["port"].(float64); ok {
		port = int(p)
	} else if p, ok := config["port"].(int); ok {
		port = p
	}

	path, _ := config["path"].(string)
	if path == "" {
		path = defaultPath
	}

	secret, _ := config["secret"].(string)

	return &Source{
		port:   port,
		path:   strings.TrimSuffix(path, "/"),
		secret: secret,
		logger: logger.With("module", "webhook_source", "port", port),
	}
}

func (s *Source) Validate() error {
	if s.port < 1 || s.port > 65535 {
		return ErrInvalidPort
	}

	return nil
}

// Start runs the server until the context is cancelled.
func (s *Source) Start(ctx context.Context, callback protocol.SourceCallback) error {
	s.mu.Lock()

	if s.started {
		s.mu.Unlock()

		return nil
	}

	s.callback = callback
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("Starting webhook server", "addr", s.server.Addr, "path", s.path)

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Stop(context.WithoutCancel(ctx))
	}
}

func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping webhook server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.started = false

	return nil
}

// Handler exposes the HTTP handler, which also serves tests.
func (s *Source) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path+"/", s.handleEvent)
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Source) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Only POST method allowed")

		return
	}

	eventType := strings.TrimPrefix(r.URL.Path, s.path+"/")
	if eventType == "" {
		s.writeError(w, http.StatusBadRequest, "Missing event type in path")

		return
	}

	if s.secret != "" && r.Header.Get("X-Conduit-Token") != s.secret {
		s.logger.Warn("Webhook request with bad token", "remote_addr", r.RemoteAddr)
		s.writeError(w, http.StatusUnauthorized, "Invalid token")

		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Error reading request body")

		return
	}

	payload := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")

			return
		}
	}

	event := eventFromPayload(eventType, payload)

	if s.callback != nil {
		if err := s.callback(r.Context(), event); err != nil {
			s.logger.Error("Error delivering webhook event", "event_id", event.ID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "Error processing event")

			return
		}
	}

	s.logger.Info("Webhook event accepted",
		"event_id", event.ID,
		"event_type", event.Type,
		"branch", event.Branch,
		"repository", event.Repository,
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":   "accepted",
		"event_id": event.ID,
	}); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}

func (s *Source) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.logger.Error("Error encoding health response", "error", err)
	}
}

func (s *Source) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
		"code":    statusCode,
	}); err != nil {
		s.logger.Error("Error encoding error response", "error", err)
	}
}

// eventFromPayload maps a request body onto an Event. Native bodies carry
// "branch" and "repository" directly; GitHub push payloads carry a
// "refs/heads/..." ref and a repository object with "full_name".
func eventFromPayload(eventType string, payload map[string]any) models.Event {
	event := models.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}

	if branch, ok := payload["branch"].(string); ok {
		event.Branch = branch
	} else if ref, ok := payload["ref"].(string); ok {
		event.Branch = strings.TrimPrefix(ref, "refs/heads/")
	}

	switch repository := payload["repository"].(type) {
	case string:
		event.Repository = repository
	case map[string]any:
		if fullName, ok := repository["full_name"].(string); ok {
			event.Repository = fullName
		}
	}

	return event
}
