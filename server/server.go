// Package server exposes the generation runtime over HTTP.
//
// One endpoint runs a turn and streams extracted actions to the client as
// server-sent events; the read endpoints serve persisted turns back out of
// the store.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/codeloom-io/loom/classify"
	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/model"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/runtime"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Streamer is the model transport shared by all turns.
	Streamer model.Streamer
	// Backend is the storage backend shared by all turns.
	Backend store.Backend
	// Classifier resolves the project partition key. If nil, prompts are
	// classified by keywords only.
	Classifier *classify.Classifier
}

// Server serves the generation API.
type Server struct {
	config Config
	echo   *echo.Echo
	reader *store.Reader
}

// New creates a server and registers its routes.
func New(config Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config: config,
		echo:   e,
		reader: store.NewReader(config.Backend),
	}

	e.POST("/api/generate", s.handleGenerate)
	e.GET("/api/turns/:id/actions", s.handleTurnActions)
	e.GET("/api/turns", s.handleListTurns)
	e.GET("/healthz", s.handleHealth)

	return s
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.config.Addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// generateRequest is the POST /api/generate body.
type generateRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// handleGenerate runs one turn and streams its actions as SSE.
//
// Event protocol:
//   - event: action, data: one types.Action JSON object, sent as the
//     materializer finishes each batch (statuses already updated)
//   - event: error, data: {"message": ...} on model transport failure,
//     after already-extracted actions have been sent
//   - event: done, data: the turn outcome JSON, always last
func (s *Server) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	meta := &types.TurnMeta{TurnID: uuid.NewString(), Attempt: 1}
	if req.SessionID != "" {
		meta.SessionID = &req.SessionID
	}

	ctx := c.Request().Context()
	project := classify.ProjectUnknown
	if s.config.Classifier != nil {
		project = s.config.Classifier.Classify(ctx, req.Prompt)
	} else if p, ok := classify.MatchKeywords(req.Prompt); ok {
		project = p
	}

	st, err := store.New(s.config.Backend, store.Config{
		Provider: s.config.Streamer.Name(),
		Project:  project,
		Day:      store.DeriveDay(time.Now()),
		TurnID:   meta.TurnID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Turn-Id", meta.TurnID)
	res.WriteHeader(http.StatusOK)

	sse := newSSEWriter(res)

	collector := metrics.NewCollector(s.config.Streamer.Name(), "live", "server", meta.TurnID, req.SessionID)
	tree := runtime.NewFileTree()
	materializer := runtime.NewMaterializer(runtime.MaterializerConfig{
		Tree:      tree,
		Store:     st,
		Collector: collector,
	})
	observer := runtime.ObserverFunc(func(_ context.Context, actions []*types.Action) error {
		for _, a := range actions {
			if err := sse.WriteEvent("action", a); err != nil {
				return err
			}
		}
		return nil
	})
	sink := relay.NewMulti(materializer, store.NewSink(st, meta, collector), observer)

	orchestrator, err := runtime.NewTurnOrchestrator(&runtime.TurnConfig{
		Meta:         meta,
		Prompt:       req.Prompt,
		Streamer:     s.config.Streamer,
		Relay:        relay.NewLiveRelay(sink, nil),
		Materializer: materializer,
		Tree:         tree,
		Store:        st,
		Collector:    collector,
	})
	if err != nil {
		return sse.WriteEvent("error", map[string]string{"message": err.Error()})
	}

	result, err := orchestrator.Execute(ctx)
	if err != nil {
		return sse.WriteEvent("error", map[string]string{"message": err.Error()})
	}

	if result.Outcome.Status == types.OutcomeTransportFailure {
		if err := sse.WriteEvent("error", map[string]string{"message": result.Outcome.Message}); err != nil {
			return err
		}
	}

	return sse.WriteEvent("done", map[string]any{
		"turn_id":         meta.TurnID,
		"outcome":         result.Outcome.Status,
		"message":         result.Outcome.Message,
		"container_title": result.ContainerTitle,
		"action_count":    result.ActionCount,
		"files":           result.Files,
	})
}

// handleTurnActions returns a persisted turn's action log as JSON.
func (s *Server) handleTurnActions(c echo.Context) error {
	ctx := c.Request().Context()
	turnID := c.Param("id")

	cfg, err := s.reader.FindTurn(ctx, turnID)
	if err != nil {
		if errors.Is(err, store.ErrTurnNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "turn not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	records, err := s.reader.ReadActions(ctx, cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	actions := make([]*types.Action, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.ToAction())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"turn_id":  turnID,
		"provider": cfg.Provider,
		"project":  cfg.Project,
		"day":      cfg.Day,
		"actions":  actions,
	})
}

// handleListTurns enumerates stored turn partitions.
func (s *Server) handleListTurns(c echo.Context) error {
	configs, err := s.reader.ListTurns(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	turns := make([]map[string]string, 0, len(configs))
	for _, cfg := range configs {
		turns = append(turns, map[string]string{
			"turn_id":  cfg.TurnID,
			"provider": cfg.Provider,
			"project":  cfg.Project,
			"day":      cfg.Day,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"turns": turns})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": types.Version,
	})
}
