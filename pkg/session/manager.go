package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/internal/logging"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/aretw0/posegraph/pkg/replay"
)

// ErrActorExists is returned when spawning an id that is already live.
var ErrActorExists = errors.New("actor already spawned")

// Factory builds the engine of a newly spawned actor.
type Factory func(actorID string) (*posegraph.Engine, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type actor struct {
	engine   *posegraph.Engine
	recorder *replay.Recorder
}

// Manager owns the engines of all spawned actors.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	factory Factory
	store   ports.DigestStore
	observe func(func() error) error

	mu     sync.Mutex
	locks  map[string]*lockEntry
	actors map[string]*actor

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithDigestStore records the digest of every tick's root pose.
func WithDigestStore(store ports.DigestStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTickObserver wraps every Tick evaluation, e.g. to time it.
func WithTickObserver(observe func(func() error) error) Option {
	return func(m *Manager) {
		m.observe = observe
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager that builds engines with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		locks:   make(map[string]*lockEntry),
		actors:  make(map[string]*actor),
		logger:  logging.NewNop(),
		observe: func(fn func() error) error { return fn() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(actorID) after unlocking.
func (m *Manager) acquire(actorID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[actorID]
	if !exists {
		entry = &lockEntry{}
		m.locks[actorID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[actorID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, actorID)
	}
}

func (m *Manager) lookup(actorID string) (*actor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	return a, ok
}

// locked runs fn holding the actor's lock.
func (m *Manager) locked(actorID string, fn func() error) error {
	entry := m.acquire(actorID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(actorID)
	}()
	return fn()
}

// Spawn builds and registers the engine of a new actor.
func (m *Manager) Spawn(ctx context.Context, actorID string) error {
	if actorID == "" {
		return fmt.Errorf("actor id cannot be empty")
	}
	return m.locked(actorID, func() error {
		if _, ok := m.lookup(actorID); ok {
			return fmt.Errorf("%w: %s", ErrActorExists, actorID)
		}

		eng, err := m.factory(actorID)
		if err != nil {
			return fmt.Errorf("failed to build actor %s: %w", actorID, err)
		}
		a := &actor{engine: eng}
		if m.store != nil {
			if a.recorder, err = replay.NewRecorder(ctx, m.store, actorID); err != nil {
				return err
			}
		}

		m.mu.Lock()
		m.actors[actorID] = a
		m.mu.Unlock()

		m.logger.Debug("actor spawned", "actor_id", actorID)
		return nil
	})
}

// Despawn drops an actor and its whole graph. Recorded digests are kept.
func (m *Manager) Despawn(ctx context.Context, actorID string) error {
	return m.locked(actorID, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.actors[actorID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrActorNotFound, actorID)
		}
		delete(m.actors, actorID)
		m.logger.Debug("actor despawned", "actor_id", actorID)
		return nil
	})
}

// With runs fn with exclusive access to the actor's engine.
func (m *Manager) With(ctx context.Context, actorID string, fn func(context.Context, *posegraph.Engine) error) error {
	return m.locked(actorID, func() error {
		a, ok := m.lookup(actorID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrActorNotFound, actorID)
		}
		return fn(ctx, a.engine)
	})
}

// Tick advances one actor and records the root pose digest when a store is set.
func (m *Manager) Tick(ctx context.Context, actorID string, run bool, step fixed.Num) (domain.PoseOutput, error) {
	var out domain.PoseOutput
	err := m.locked(actorID, func() error {
		a, ok := m.lookup(actorID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrActorNotFound, actorID)
		}
		err := m.observe(func() error {
			var err error
			out, err = a.engine.Tick(run, step)
			return err
		})
		if err != nil {
			return err
		}
		if a.recorder != nil {
			if _, err := a.recorder.Record(ctx, out); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// List returns the spawned actor ids, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.actors))
	for id := range m.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store returns the digest store, or nil.
func (m *Manager) Store() ports.DigestStore {
	return m.store
}
