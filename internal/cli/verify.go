package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/posegraph/internal/presentation/tui"
	"github.com/aretw0/posegraph/pkg/replay"
)

// Verify compares two recorded runs and reports the first divergence.
func Verify(ctx context.Context, o StoreOptions, runA, runB string, out io.Writer) error {
	store, closeStore, err := OpenStore(o)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := replay.Verify(ctx, store, runA, runB)
	if res.LenA > 0 || res.LenB > 0 {
		report := res.String()
		if IsTerminal(out) {
			color := "#f87171"
			if res.Equal() {
				color = "#34d399"
			}
			report = tui.Highlight(report, color)
		}
		fmt.Fprintf(out, "%s vs %s: %s\n", runA, runB, report)
	}
	return err
}

// ListRuns prints the recorded run ids.
func ListRuns(ctx context.Context, o StoreOptions, out io.Writer) error {
	store, closeStore, err := OpenStore(o)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs found.")
		return nil
	}
	for _, r := range runs {
		digests, err := store.Load(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "- %s (%d ticks)\n", r, len(digests))
	}
	return nil
}

// DeleteRun removes a recorded run.
func DeleteRun(ctx context.Context, o StoreOptions, runID string) error {
	store, closeStore, err := OpenStore(o)
	if err != nil {
		return err
	}
	defer closeStore()
	return store.Delete(ctx, runID)
}
