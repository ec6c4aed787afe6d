package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/posegraph/internal/logging"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/ports"
)

// StreamManager handles active SSE connections, keyed by actor id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for actorID. The returned function
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(actorID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[actorID]; !ok {
		sm.subscribers[actorID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[actorID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[actorID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, actorID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of actorID without blocking.
func (sm *StreamManager) Broadcast(actorID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[actorID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "actor_id", actorID)
		}
	}
}

// Sink returns an event sink that broadcasts the frame events of actorID.
func (sm *StreamManager) Sink(actorID string) ports.EventSink {
	return ports.EventSinkFunc(func(ev domain.FrameEvent) {
		msg, err := json.Marshal(struct {
			Type string `json:"type"`
			domain.FrameEvent
		}{"frame_event", ev})
		if err != nil {
			return
		}
		sm.Broadcast(actorID, string(msg))
	})
}
