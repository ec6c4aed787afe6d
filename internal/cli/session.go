package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/internal/presentation/tui"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/replay"
)

// RunSession builds the graph once, evaluates the requested ticks and
// optionally records their digests.
func RunSession(ctx context.Context, opts RunOptions, script []Action, out io.Writer) error {
	logger := createLogger(opts.Debug)
	events := &eventBuffer{}

	eng, err := createEngine(opts.RepoPath, opts.Root, logger, createDebugHooks(logger, opts.Debug), events)
	if err != nil {
		return err
	}

	var rec *replay.Recorder
	if opts.Record != "" {
		store, closeStore, err := OpenStore(opts.Store)
		if err != nil {
			return err
		}
		defer closeStore()
		if rec, err = replay.NewRecorder(ctx, store, opts.Record); err != nil {
			return err
		}
	}

	p := newPrinter(out, opts)
	if !opts.JSON {
		printSystemMessage(out, "Evaluating '%s' (%d tracks).", eng.Root(), eng.TrackCount())
	}

	err = evaluate(ctx, eng, opts, script, rec, events, p)
	if err == nil && rec != nil && !opts.JSON {
		printSystemMessage(out, "Recorded %d ticks as run '%s'.", rec.Count(), rec.RunID())
	}
	logger.Info("Run finished", "root", eng.Root(), "stamp", eng.Stamp(), "err", err)
	return handleExecutionError(err)
}

// evaluate applies the script and advances eng tick by tick. Without an
// explicit tick count it runs up to the last scripted tick, at least once.
func evaluate(ctx context.Context, eng *posegraph.Engine, opts RunOptions, script []Action, rec *replay.Recorder, events *eventBuffer, p *printer) error {
	ticks := opts.Ticks
	if ticks == 0 {
		ticks = max(lastTick(script), 1)
	}

	next := 0
	for tick := 1; tick <= ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for ; next < len(script) && script[next].Tick == tick; next++ {
			if err := script[next].Apply(eng); err != nil {
				return fmt.Errorf("tick %d: %s %s: %w", tick, script[next].Op, script[next].Node, err)
			}
		}

		pose, err := eng.Tick(true, opts.Step)
		if err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		digest := replay.Digest(pose)
		if rec != nil {
			if _, err := rec.Record(ctx, pose); err != nil {
				return err
			}
		}
		if err := p.tick(eng.Stamp(), pose, digest, events.drain()); err != nil {
			return err
		}
	}
	return nil
}

// eventBuffer collects the frame events of the tick in progress.
type eventBuffer struct {
	events []domain.FrameEvent
}

func (b *eventBuffer) Emit(ev domain.FrameEvent) {
	b.events = append(b.events, ev)
}

func (b *eventBuffer) drain() []domain.FrameEvent {
	out := b.events
	b.events = nil
	return out
}

// tickRecord is one NDJSON line of --json output.
type tickRecord struct {
	Stamp  uint64              `json:"stamp"`
	Digest string              `json:"digest"`
	Pose   domain.PoseOutput   `json:"pose"`
	Events []domain.FrameEvent `json:"events,omitempty"`
}

type printer struct {
	out    io.Writer
	json   *json.Encoder
	render func(string) (string, error)
}

func newPrinter(out io.Writer, opts RunOptions) *printer {
	p := &printer{out: out}
	switch {
	case opts.JSON:
		p.json = json.NewEncoder(out)
	case opts.Pretty:
		p.render = tui.NewRenderer()
	}
	return p
}

func (p *printer) tick(stamp uint64, pose domain.PoseOutput, digest uint64, events []domain.FrameEvent) error {
	if p.json != nil {
		return p.json.Encode(tickRecord{
			Stamp:  stamp,
			Digest: fmt.Sprintf("%016x", digest),
			Pose:   pose,
			Events: events,
		})
	}

	md := tui.PoseTable(stamp, pose)
	if p.render != nil {
		if rendered, err := p.render(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprint(p.out, md)
	for _, ev := range events {
		printSystemMessage(p.out, "event '%s' from %s at frame %d", ev.Event, ev.Node, ev.Frame)
	}
	fmt.Fprintf(p.out, "digest %016x\n\n", digest)
	return nil
}
