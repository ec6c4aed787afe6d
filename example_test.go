package posegraph_test

import (
	"fmt"
	"log"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/dsl"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
)

// ExampleNew_memory builds a graph in code: a walk cycle with a one-shot wave
// overlaid on top, fading in and back out over two ticks.
func ExampleNew_memory() {
	ramp := func(name string, xs ...int) *domain.Clip {
		frames := make([]domain.PoseOutput, len(xs))
		for i, x := range xs {
			frames[i] = domain.NewPose(1)
			frames[i].Tracks[0].Translation.X = fixed.FromInt(x)
		}
		return domain.NewClip(name, domain.FullMask(1), frames...)
	}
	clips := memory.NewClipLibrary(1, ramp("walk", 0, 1, 2, 3), ramp("wave", 10, 20, 30))

	b := dsl.New()
	b.Animation("walk").Clip("walk")
	b.Animation("wave").Clip("wave").On(2, "wave_peak")
	b.Overlay("root", "walk", "wave").Recover(2)

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	sink := ports.EventSinkFunc(func(ev domain.FrameEvent) {
		fmt.Printf("  event %s at stamp %d\n", ev.Event, ev.Stamp)
	})
	eng, err := posegraph.New("", posegraph.WithLoader(loader), posegraph.WithClipLibrary(clips), posegraph.WithEventSink(sink))
	if err != nil {
		log.Fatal(err)
	}

	if err := eng.StartOverlay("root"); err != nil {
		log.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		pose, err := eng.Tick(true, fixed.One)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("tick %d: x=%s\n", eng.Stamp(), pose.Tracks[0].Translation.X)
	}
	// Output:
	// tick 1: x=10.5
	//   event wave_peak at stamp 2
	// tick 2: x=30
	// tick 3: x=16.5
	// tick 4: x=0
	// tick 5: x=1
}
