// Package replay fingerprints evaluated poses so two runs of the same graph
// can be checked for bit-identical output, across processes or machines.
package replay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/cespare/xxhash/v2"
)

// Digest hashes the masked tracks of a pose. Tracks outside the mask do not
// contribute, so two poses that compare Equal have the same digest.
func Digest(p domain.PoseOutput) uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	num := func(n fixed.Num) { put(uint64(n)) }

	tracks := p.Mask.Tracks()
	put(uint64(len(tracks)))
	for _, t := range tracks {
		put(uint64(t))
		if t >= len(p.Tracks) {
			continue
		}
		tr := p.Tracks[t]
		num(tr.Translation.X)
		num(tr.Translation.Y)
		num(tr.Translation.Z)
		num(tr.Rotation.X)
		num(tr.Rotation.Y)
		num(tr.Rotation.Z)
		num(tr.Rotation.W)
		num(tr.Scale.X)
		num(tr.Scale.Y)
		num(tr.Scale.Z)
	}
	return h.Sum64()
}

// Recorder appends one digest per recorded pose to a run.
type Recorder struct {
	store ports.DigestStore
	runID string
	count int
}

// NewRecorder creates a recorder for runID. An existing run with the same
// id is discarded first.
func NewRecorder(ctx context.Context, store ports.DigestStore, runID string) (*Recorder, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}
	if err := store.Delete(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to reset run %s: %w", runID, err)
	}
	return &Recorder{store: store, runID: runID}, nil
}

// Record stores the digest of p and returns it.
func (r *Recorder) Record(ctx context.Context, p domain.PoseOutput) (uint64, error) {
	d := Digest(p)
	if err := r.store.Append(ctx, r.runID, d); err != nil {
		return 0, fmt.Errorf("failed to record tick %d: %w", r.count, err)
	}
	r.count++
	return d, nil
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Count returns how many poses were recorded.
func (r *Recorder) Count() int { return r.count }

// ErrDiverged is returned by Verify when the runs differ.
var ErrDiverged = errors.New("runs diverged")

// Result describes how two runs compare.
type Result struct {
	// Tick is the index of the first differing digest, or -1 when the runs match.
	Tick  int
	LenA  int
	LenB  int
	WantA uint64
	GotB  uint64
}

// Equal reports whether both runs hold the same digests.
func (r Result) Equal() bool { return r.Tick < 0 }

func (r Result) String() string {
	switch {
	case r.Equal():
		return fmt.Sprintf("identical (%d ticks)", r.LenA)
	case r.Tick >= r.LenA || r.Tick >= r.LenB:
		return fmt.Sprintf("length differs at tick %d (%d vs %d ticks)", r.Tick, r.LenA, r.LenB)
	}
	return fmt.Sprintf("tick %d: %016x != %016x", r.Tick, r.WantA, r.GotB)
}

// Compare loads two runs and finds the first tick where they differ.
// A run that is a strict prefix of the other diverges at its length.
func Compare(ctx context.Context, store ports.DigestStore, runA, runB string) (Result, error) {
	a, err := store.Load(ctx, runA)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", runA, err)
	}
	b, err := store.Load(ctx, runB)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", runB, err)
	}

	res := Result{Tick: -1, LenA: len(a), LenB: len(b)}
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			res.Tick, res.WantA, res.GotB = i, a[i], b[i]
			return res, nil
		}
	}
	if len(a) != len(b) {
		res.Tick = min(len(a), len(b))
	}
	return res, nil
}

// Verify is Compare returning ErrDiverged when the runs differ.
func Verify(ctx context.Context, store ports.DigestStore, runA, runB string) (Result, error) {
	res, err := Compare(ctx, store, runA, runB)
	if err != nil {
		return res, err
	}
	if !res.Equal() {
		return res, fmt.Errorf("%w: %s", ErrDiverged, res)
	}
	return res, nil
}
