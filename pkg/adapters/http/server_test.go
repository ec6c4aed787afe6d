package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/posegraph"
	posehttp "github.com/aretw0/posegraph/pkg/adapters/http"
	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/dsl"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clip(name string, xs ...int) *domain.Clip {
	frames := make([]domain.PoseOutput, len(xs))
	for i, x := range xs {
		frames[i] = domain.NewPose(1)
		frames[i].Tracks[0].Translation.X = fixed.FromInt(x)
	}
	return domain.NewClip(name, domain.FullMask(1), frames...)
}

func newServer(t *testing.T, opts ...posehttp.Option) (http.Handler, *session.Manager) {
	t.Helper()
	clips := memory.NewClipLibrary(1, clip("walk", 0, 1, 2, 3), clip("wave", 10, 20, 30))

	b := dsl.New()
	b.Animation("walk").Clip("walk").On(2, "step")
	b.Animation("wave").Clip("wave")
	b.Binary("mix", "walk", "walk")
	b.Overlay("root", "mix", "wave").Keep(1)
	loader, err := b.Build()
	require.NoError(t, err)

	streams := posehttp.NewStreamManager(nil)
	factory := func(actorID string) (*posegraph.Engine, error) {
		return posegraph.New("",
			posegraph.WithLoader(loader),
			posegraph.WithClipLibrary(clips),
			posegraph.WithEventSink(streams.Sink(actorID)),
		)
	}
	mgr := session.NewManager(factory)
	opts = append([]posehttp.Option{posehttp.WithStreams(streams)}, opts...)
	return posehttp.NewHandler(mgr, opts...), mgr
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_HealthAndInfo(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	assert.Contains(t, w.Body.String(), posegraph.Version)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ActorLifecycle(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "POST", "/actors", `{"id": "hero"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, "POST", "/actors", `{"id": "hero"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "POST", "/actors", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/actors", `{"id": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "GET", "/actors", "")
	assert.JSONEq(t, `["hero"]`, w.Body.String())

	w = do(t, h, "DELETE", "/actors/hero", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "DELETE", "/actors/hero", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/actors/hero/tick", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_TickAndQuery(t *testing.T) {
	h, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/actors", `{"id": "a1"}`).Code)

	w := do(t, h, "GET", "/actors/a1/tracks/0", "")
	assert.Equal(t, http.StatusConflict, w.Code, "no tick evaluated yet")

	w = do(t, h, "POST", "/actors/a1/tick", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp posehttp.TickResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a1", resp.Actor)
	assert.Equal(t, uint64(1), resp.Stamp)
	assert.Len(t, resp.Digest, 16)
	assert.Equal(t, fixed.One, resp.Pose.Tracks[0].Translation.X)

	w = do(t, h, "POST", "/actors/a1/tick", `{"step": "2"}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2), resp.Stamp)
	assert.Equal(t, fixed.FromInt(3), resp.Pose.Tracks[0].Translation.X)

	w = do(t, h, "GET", "/actors/a1/tracks/0?node=walk", "")
	require.Equal(t, http.StatusOK, w.Code)
	var track domain.SingleTrackOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &track))
	assert.True(t, track.Valid())
	assert.Equal(t, fixed.FromInt(3), track.Transform.Translation.X)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/actors/a1/tracks/x", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/actors/a1/tracks/0?node=ghost", "").Code)

	w = do(t, h, "POST", "/actors/a1/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/actors/a1/nodes/walk", "")
	assert.Contains(t, w.Body.String(), `"frame":0`)
}

func TestServer_Controls(t *testing.T) {
	h, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/actors", `{"id": "a1"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/actors/a1/nodes/root/overlay/start", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/actors/a1/nodes/mix/weight", `{"x": 0.25}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/actors/a1/nodes/walk/speed", `{"speed": "0.5"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/actors/a1/nodes/walk/play", `{"play": "pingpong"}`).Code)

	w := do(t, h, "POST", "/actors/a1/tick", "")
	var resp posehttp.TickResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, fixed.FromInt(20), resp.Pose.Tracks[0].Translation.X, "overlay at full fade")

	w = do(t, h, "GET", "/actors/a1/nodes/mix", "")
	assert.Contains(t, w.Body.String(), `"weight":0.25`)
	w = do(t, h, "GET", "/actors/a1/nodes/walk", "")
	assert.Contains(t, w.Body.String(), `"speed":0.5`)
	assert.Contains(t, w.Body.String(), `"play":"pingpong"`)

	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/actors/a1/nodes/root/overlay/stop", "").Code)
	w = do(t, h, "GET", "/actors/a1/nodes/root", "")
	assert.NotContains(t, w.Body.String(), `"armed":true`)

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, "POST", "/actors/a1/nodes/mix/flag", `{"to_b": true}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, "POST", "/actors/a1/nodes/mix/weight", `{"x": 0, "y": 1}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/actors/a1/nodes/ghost/overlay/start", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/actors/nobody/nodes/root/overlay/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/actors/a1/nodes/mix/weight", `{"x": "heavy"}`).Code)
}

func TestServer_Graph(t *testing.T) {
	h, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/actors", `{"id": "a1"}`).Code)

	w := do(t, h, "GET", "/actors/a1/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	var statuses []domain.NodeStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	assert.Len(t, statuses, 4)

	do(t, h, "POST", "/actors/a1/nodes/root/overlay/start", "")
	w = do(t, h, "GET", "/actors/a1/graph/mermaid", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "graph TD"))
	assert.Contains(t, body, `root -- "shot" -.-> wave`)
	assert.Contains(t, body, "class root active;")
	assert.Contains(t, body, "class root root;")
}

func TestServer_Metrics(t *testing.T) {
	h, _ := newServer(t, posehttp.WithMetrics(promhttp.Handler()))
	w := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	h, _ = newServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/metrics", "").Code)
}

func TestSubscribeEvents_HotReload(t *testing.T) {
	h, _ := newServer(t)
	assert.Equal(t, http.StatusNotImplemented, do(t, h, "GET", "/events", "").Code)

	h, _ = newServer(t, posehttp.WithWatcher(func(ctx context.Context) (<-chan string, error) {
		ch := make(chan string, 1)
		ch <- "walk"
		close(ch)
		return ch, nil
	}))
	w := do(t, h, "GET", "/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event: ping")
	assert.Contains(t, w.Body.String(), "data: walk")
}

func TestSubscribeEvents_Actor(t *testing.T) {
	h, _ := newServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/actors", "application/json", strings.NewReader(`{"id": "a1"}`))
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?actor_id=a1", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	lines := bufio.NewScanner(stream.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// Walk reaches frame 2 on the second tick.
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/actors/a1/tick", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	var data []string
	for lines.Scan() && len(data) < 3 {
		if line, ok := strings.CutPrefix(lines.Text(), "data: "); ok && line != "connected" {
			data = append(data, line)
		}
	}
	require.Len(t, data, 3)
	assert.Contains(t, data[0], `"type":"tick"`)
	assert.Contains(t, data[1], `"type":"frame_event"`)
	assert.Contains(t, data[1], `"event":"step"`)
	assert.Contains(t, data[2], `"stamp":2`)
}
