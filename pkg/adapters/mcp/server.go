// Package mcp exposes spawned actors as Model Context Protocol tools, so an
// agent can drive and inspect pose graphs.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/internal/logging"
	"github.com/aretw0/posegraph/internal/presentation/graph"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/replay"
	"github.com/aretw0/posegraph/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TickResult is the payload of the tick tool.
type TickResult struct {
	Actor  string            `json:"actor"`
	Stamp  uint64            `json:"stamp"`
	Digest string            `json:"digest"`
	Pose   domain.PoseOutput `json:"pose"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. A nil logger discards.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("posegraph-mcp", strings.TrimSpace(posegraph.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func actorArg() mcp.ToolOption {
	return mcp.WithString("actor_id", mcp.Required(), mcp.Description("Spawned actor ID"))
}

func nodeArg() mcp.ToolOption {
	return mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID inside the actor's graph"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_actors",
		mcp.WithDescription("List the spawned actors."),
	), s.handleListActors)

	s.mcpServer.AddTool(mcp.NewTool("spawn_actor",
		mcp.WithDescription("Build a fresh graph instance for a new actor."),
		actorArg(),
	), s.handleSpawn)

	s.mcpServer.AddTool(mcp.NewTool("despawn_actor",
		mcp.WithDescription("Drop an actor and its graph."),
		actorArg(),
	), s.handleDespawn)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Inspect every node of an actor's graph: playheads, weights and modes."),
		actorArg(),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_mermaid",
		mcp.WithDescription("Render an actor's graph as a Mermaid flowchart."),
		actorArg(),
	), s.handleGetMermaid)

	s.mcpServer.AddTool(mcp.NewTool("tick",
		mcp.WithDescription("Advance an actor by one tick and return the root pose."),
		actorArg(),
		mcp.WithBoolean("run", mcp.Description("Whether time advances; false rewinds the leaves reached (default true)")),
		mcp.WithString("step", mcp.Description("Decimal time step in frames (default \"1\")")),
	), s.handleTick)

	s.mcpServer.AddTool(mcp.NewTool("query_track",
		mcp.WithDescription("Evaluate one track of the last tick without computing the full pose."),
		actorArg(),
		mcp.WithNumber("track", mcp.Required(), mcp.Description("Track index")),
		mcp.WithString("node_id", mcp.Description("Node to query (defaults to the root)")),
	), s.handleQueryTrack)

	s.mcpServer.AddTool(mcp.NewTool("set_flag",
		mcp.WithDescription("Steer a crossfade or transition node toward B (true) or A (false)."),
		actorArg(),
		nodeArg(),
		mcp.WithBoolean("to_b", mcp.Required(), mcp.Description("Target B")),
	), s.handleSetFlag)

	s.mcpServer.AddTool(mcp.NewTool("set_weight",
		mcp.WithDescription("Set the weight of a binary, axis or grid blend. Grids also take y."),
		actorArg(),
		nodeArg(),
		mcp.WithString("x", mcp.Required(), mcp.Description("Decimal weight")),
		mcp.WithString("y", mcp.Description("Decimal Y weight for grids")),
	), s.handleSetWeight)

	s.mcpServer.AddTool(mcp.NewTool("start_overlay",
		mcp.WithDescription("Arm an overlay node and restart its one-shot clip."),
		actorArg(),
		nodeArg(),
	), s.handleStartOverlay)

	s.mcpServer.AddTool(mcp.NewTool("stop_overlay",
		mcp.WithDescription("Disarm an overlay node immediately."),
		actorArg(),
		nodeArg(),
	), s.handleStopOverlay)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("posegraph://actors", "Spawned Actors",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.List())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "posegraph://actors",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// -- Tool handlers --

func (s *Server) handleListActors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sessions.List())
}

func (s *Server) handleSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actorID, err := request.RequireString("actor_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Spawn(ctx, actorID); err != nil {
		return s.toolError("spawn", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("actor %s spawned", actorID)), nil
}

func (s *Server) handleDespawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actorID, err := request.RequireString("actor_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Despawn(ctx, actorID); err != nil {
		return s.toolError("despawn", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("actor %s despawned", actorID)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var statuses []domain.NodeStatus
	if res := s.with(ctx, request, func(eng *posegraph.Engine) error {
		statuses = eng.Inspect()
		return nil
	}); res != nil {
		return res, nil
	}
	return jsonResult(statuses)
}

func (s *Server) handleGetMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out string
	if res := s.with(ctx, request, func(eng *posegraph.Engine) error {
		out = graph.GenerateMermaid(eng.Definitions(), &graph.GraphOverlay{
			Root:   eng.Root(),
			Active: graph.ActiveNodes(eng.Inspect()),
		})
		return nil
	}); res != nil {
		return res, nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actorID, err := request.RequireString("actor_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	step, err := numArg(request, "step", fixed.One)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run := request.GetBool("run", true)

	pose, err := s.sessions.Tick(ctx, actorID, run, step)
	if err != nil {
		return s.toolError("tick", err), nil
	}
	res := TickResult{Actor: actorID, Digest: fmt.Sprintf("%016x", replay.Digest(pose)), Pose: pose}
	_ = s.sessions.With(ctx, actorID, func(_ context.Context, eng *posegraph.Engine) error {
		res.Stamp = eng.Stamp()
		return nil
	})
	return jsonResult(res)
}

func (s *Server) handleQueryTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	track := request.GetInt("track", -1)
	if track < 0 {
		return mcp.NewToolResultError("track must be a non-negative integer"), nil
	}
	nodeID := request.GetString("node_id", "")

	var out domain.SingleTrackOutput
	if res := s.with(ctx, request, func(eng *posegraph.Engine) error {
		var err error
		if nodeID == "" {
			out, err = eng.QueryTrack(track)
		} else {
			out, err = eng.QueryNodeTrack(nodeID, track)
		}
		return err
	}); res != nil {
		return res, nil
	}
	return jsonResult(out)
}

func (s *Server) handleSetFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toB, err := request.RequireBool("to_b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.control(ctx, request, "set_flag", func(eng *posegraph.Engine, nodeID string) error {
		return eng.SetFlag(nodeID, toB)
	})
}

func (s *Server) handleSetWeight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, err := numArg(request, "x", fixed.Zero)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, hasY := request.GetArguments()["y"]
	y, err := numArg(request, "y", fixed.Zero)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.control(ctx, request, "set_weight", func(eng *posegraph.Engine, nodeID string) error {
		if hasY {
			return eng.SetWeight2D(nodeID, x, y)
		}
		return eng.SetWeight(nodeID, x)
	})
}

func (s *Server) handleStartOverlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.control(ctx, request, "start_overlay", func(eng *posegraph.Engine, nodeID string) error {
		return eng.StartOverlay(nodeID)
	})
}

func (s *Server) handleStopOverlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.control(ctx, request, "stop_overlay", func(eng *posegraph.Engine, nodeID string) error {
		return eng.StopOverlay(nodeID)
	})
}

// -- Helpers --

// with runs fn on the requested actor. A non-nil result reports the failure.
func (s *Server) with(ctx context.Context, request mcp.CallToolRequest, fn func(*posegraph.Engine) error) *mcp.CallToolResult {
	actorID, err := request.RequireString("actor_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	err = s.sessions.With(ctx, actorID, func(_ context.Context, eng *posegraph.Engine) error {
		return fn(eng)
	})
	if err != nil {
		return s.toolError(request.Params.Name, err)
	}
	return nil
}

func (s *Server) control(ctx context.Context, request mcp.CallToolRequest, name string, op func(*posegraph.Engine, string) error) (*mcp.CallToolResult, error) {
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res := s.with(ctx, request, func(eng *posegraph.Engine) error { return op(eng, nodeID) }); res != nil {
		return res, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s applied to %s", name, nodeID)), nil
}

// toolError reports caller mistakes as tool errors and logs the rest.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, domain.ErrActorNotFound),
		errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrWrongKind),
		errors.Is(err, domain.ErrInvalidStamp),
		errors.Is(err, session.ErrActorExists):
	default:
		s.logger.Error("MCP tool failed", "tool", op, "err", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err))
}

// numArg reads a decimal argument given as a string or a JSON number.
func numArg(request mcp.CallToolRequest, key string, def fixed.Num) (fixed.Num, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return def, nil
	}
	var text string
	switch t := v.(type) {
	case string:
		text = t
	case float64:
		text = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		text = t.String()
	default:
		return 0, fmt.Errorf("%s: expected a decimal, got %T", key, v)
	}
	n, err := fixed.Parse(text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
