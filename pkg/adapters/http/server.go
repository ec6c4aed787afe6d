// Package http exposes spawned actors over a JSON API built on chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/internal/logging"
	"github.com/aretw0/posegraph/internal/presentation/graph"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/replay"
	"github.com/aretw0/posegraph/pkg/session"
	"github.com/go-chi/chi/v5"
)

// WatchFunc streams the ids of changed graph documents.
type WatchFunc func(ctx context.Context) (<-chan string, error)

// Server serves the actors of one session manager.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	watch   WatchFunc
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a stream manager, typically one whose Sink is wired
// into the actor factory.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithWatcher enables hot reload notifications on GET /events.
func WithWatcher(fn WatchFunc) Option {
	return func(s *Server) {
		s.watch = fn
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the actors of sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{Sessions: sessions, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/actors", func(r chi.Router) {
		r.Get("/", s.ListActors)
		r.Post("/", s.SpawnActor)
		r.Route("/{actorID}", func(r chi.Router) {
			r.Delete("/", s.DespawnActor)
			r.Get("/graph", s.GetGraph)
			r.Get("/graph/mermaid", s.GetMermaid)
			r.Post("/tick", s.Tick)
			r.Post("/reset", s.ResetLeaves)
			r.Get("/tracks/{track}", s.QueryTrack)
			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/", s.GetNode)
				r.Post("/flag", s.SetFlag)
				r.Post("/weight", s.SetWeight)
				r.Post("/speed", s.SetSpeed)
				r.Post("/play", s.SetPlayState)
				r.Post("/overlay/start", s.StartOverlay)
				r.Post("/overlay/stop", s.StopOverlay)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "posegraph-http",
		"version": strings.TrimSpace(posegraph.Version),
	})
}

// ListActors handles the GET /actors request.
func (s *Server) ListActors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Sessions.List())
}

// SpawnRequest is the body of POST /actors.
type SpawnRequest struct {
	ID string `json:"id"`
}

// SpawnActor handles the POST /actors request.
func (s *Server) SpawnActor(w http.ResponseWriter, r *http.Request) {
	var body SpawnRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.ID == "" {
		http.Error(w, "Actor id is required", http.StatusBadRequest)
		return
	}
	if err := s.Sessions.Spawn(r.Context(), body.ID); err != nil {
		s.fail(w, "Spawn", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, body)
}

// DespawnActor handles the DELETE /actors/{actorID} request.
func (s *Server) DespawnActor(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Despawn(r.Context(), chi.URLParam(r, "actorID")); err != nil {
		s.fail(w, "Despawn", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles the GET /actors/{actorID}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.NodeStatus
	err := s.with(r, func(eng *posegraph.Engine) error {
		statuses = eng.Inspect()
		return nil
	})
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, statuses)
}

// GetMermaid handles the GET /actors/{actorID}/graph/mermaid request.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	var out string
	err := s.with(r, func(eng *posegraph.Engine) error {
		out = graph.GenerateMermaid(eng.Definitions(), &graph.GraphOverlay{
			Root:   eng.Root(),
			Active: graph.ActiveNodes(eng.Inspect()),
		})
		return nil
	})
	if err != nil {
		s.fail(w, "Mermaid", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// GetNode handles the GET /actors/{actorID}/nodes/{nodeID} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var st domain.NodeStatus
	err := s.with(r, func(eng *posegraph.Engine) error {
		var err error
		st, err = eng.InspectNode(nodeID)
		return err
	})
	if err != nil {
		s.fail(w, "InspectNode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// TickRequest is the body of POST /actors/{actorID}/tick. Missing fields
// default to run=true and step=1.
type TickRequest struct {
	Run  *bool      `json:"run,omitempty"`
	Step *fixed.Num `json:"step,omitempty"`
}

// TickResponse carries the root pose of one tick.
type TickResponse struct {
	Actor  string            `json:"actor"`
	Stamp  uint64            `json:"stamp"`
	Digest string            `json:"digest"`
	Pose   domain.PoseOutput `json:"pose"`
}

// Tick handles the POST /actors/{actorID}/tick request.
func (s *Server) Tick(w http.ResponseWriter, r *http.Request) {
	var body TickRequest
	if !s.decode(w, r, &body) {
		return
	}
	run, step := true, fixed.One
	if body.Run != nil {
		run = *body.Run
	}
	if body.Step != nil {
		step = *body.Step
	}

	actorID := chi.URLParam(r, "actorID")
	pose, err := s.Sessions.Tick(r.Context(), actorID, run, step)
	if err != nil {
		s.fail(w, "Tick", err)
		return
	}
	resp := TickResponse{
		Actor:  actorID,
		Digest: fmt.Sprintf("%016x", replay.Digest(pose)),
		Pose:   pose,
	}
	_ = s.Sessions.With(r.Context(), actorID, func(_ context.Context, eng *posegraph.Engine) error {
		resp.Stamp = eng.Stamp()
		return nil
	})

	if msg, err := json.Marshal(map[string]any{"type": "tick", "stamp": resp.Stamp, "digest": resp.Digest}); err == nil {
		s.Streams.Broadcast(actorID, string(msg))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ResetLeaves handles the POST /actors/{actorID}/reset request.
func (s *Server) ResetLeaves(w http.ResponseWriter, r *http.Request) {
	err := s.with(r, func(eng *posegraph.Engine) error {
		eng.ResetLeaves()
		return nil
	})
	if err != nil {
		s.fail(w, "Reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryTrack handles GET /actors/{actorID}/tracks/{track}. The optional node
// query parameter selects a node other than the root.
func (s *Server) QueryTrack(w http.ResponseWriter, r *http.Request) {
	track, err := strconv.Atoi(chi.URLParam(r, "track"))
	if err != nil || track < 0 {
		http.Error(w, "Invalid track index", http.StatusBadRequest)
		return
	}
	nodeID := r.URL.Query().Get("node")

	var out domain.SingleTrackOutput
	err = s.with(r, func(eng *posegraph.Engine) error {
		var err error
		if nodeID == "" {
			out, err = eng.QueryTrack(track)
		} else {
			out, err = eng.QueryNodeTrack(nodeID, track)
		}
		return err
	})
	if err != nil {
		s.fail(w, "QueryTrack", err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// FlagRequest is the body of POST .../flag.
type FlagRequest struct {
	ToB bool `json:"to_b"`
}

// SetFlag handles the POST /actors/{actorID}/nodes/{nodeID}/flag request.
func (s *Server) SetFlag(w http.ResponseWriter, r *http.Request) {
	var body FlagRequest
	s.control(w, r, &body, "SetFlag", func(eng *posegraph.Engine, nodeID string) error {
		return eng.SetFlag(nodeID, body.ToB)
	})
}

// WeightRequest is the body of POST .../weight. Y is only used by grids.
type WeightRequest struct {
	X fixed.Num  `json:"x"`
	Y *fixed.Num `json:"y,omitempty"`
}

// SetWeight handles the POST /actors/{actorID}/nodes/{nodeID}/weight request.
func (s *Server) SetWeight(w http.ResponseWriter, r *http.Request) {
	var body WeightRequest
	s.control(w, r, &body, "SetWeight", func(eng *posegraph.Engine, nodeID string) error {
		if body.Y != nil {
			return eng.SetWeight2D(nodeID, body.X, *body.Y)
		}
		return eng.SetWeight(nodeID, body.X)
	})
}

// SpeedRequest is the body of POST .../speed.
type SpeedRequest struct {
	Speed fixed.Num `json:"speed"`
}

// SetSpeed handles the POST /actors/{actorID}/nodes/{nodeID}/speed request.
func (s *Server) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var body SpeedRequest
	s.control(w, r, &body, "SetSpeed", func(eng *posegraph.Engine, nodeID string) error {
		return eng.SetSpeed(nodeID, body.Speed)
	})
}

// PlayRequest is the body of POST .../play.
type PlayRequest struct {
	Play domain.PlayState `json:"play"`
}

// SetPlayState handles the POST /actors/{actorID}/nodes/{nodeID}/play request.
func (s *Server) SetPlayState(w http.ResponseWriter, r *http.Request) {
	var body PlayRequest
	s.control(w, r, &body, "SetPlayState", func(eng *posegraph.Engine, nodeID string) error {
		return eng.SetPlayState(nodeID, body.Play)
	})
}

// StartOverlay handles the POST .../overlay/start request.
func (s *Server) StartOverlay(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, nil, "StartOverlay", func(eng *posegraph.Engine, nodeID string) error {
		return eng.StartOverlay(nodeID)
	})
}

// StopOverlay handles the POST .../overlay/stop request.
func (s *Server) StopOverlay(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, nil, "StopOverlay", func(eng *posegraph.Engine, nodeID string) error {
		return eng.StopOverlay(nodeID)
	})
}

// SubscribeEvents handles the GET /events request (SSE). With an actor_id
// query parameter it streams that actor's ticks and frame events; without one
// it streams hot reload notifications.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	actorID := r.URL.Query().Get("actor_id")
	var events <-chan string
	if actorID == "" {
		if s.watch == nil {
			http.Error(w, "Hot reload not enabled", http.StatusNotImplemented)
			return
		}
		var err error
		if events, err = s.watch(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		s.logger.Info("SSE: Subscribing to hot reload")
	} else {
		ch, cancel := s.Streams.Subscribe(actorID)
		defer cancel()
		events = ch
		s.logger.Info("SSE: Subscribing to actor", "actor_id", actorID)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) with(r *http.Request, fn func(*posegraph.Engine) error) error {
	return s.Sessions.With(r.Context(), chi.URLParam(r, "actorID"), func(_ context.Context, eng *posegraph.Engine) error {
		return fn(eng)
	})
}

// control decodes body (when non-nil) and runs op against the addressed node.
func (s *Server) control(w http.ResponseWriter, r *http.Request, body any, name string, op func(*posegraph.Engine, string) error) {
	if body != nil && !s.decode(w, r, body) {
		return
	}
	nodeID, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	if err := s.with(r, func(eng *posegraph.Engine) error { return op(eng, nodeID) }); err != nil {
		s.fail(w, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nodeID unescapes the node path parameter, so ids containing '/' can be
// sent as %2F.
func (s *Server) nodeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "nodeID"))
	if err != nil || id == "" {
		http.Error(w, "Invalid node id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// decode reads a JSON body. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrActorNotFound), errors.Is(err, domain.ErrUnknownNode):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrActorExists), errors.Is(err, domain.ErrInvalidStamp):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrWrongKind):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
