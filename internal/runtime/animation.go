package runtime

import (
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
)

// Animation plays one clip.
//
// The playhead is a fixed-point frame position advanced by step×speed on every
// tick the node runs. A tick without run, or with no clip bound, rewinds to
// frame 0 and clears holding-at-end.
//
// Events of the frame landed on fire once per tick. A Once clip holding its
// last frame fires them only on arrival, and a step smaller than one frame
// fires nothing until the frame index changes.
type Animation struct {
	node
	clip   ports.ClipSource
	play   domain.PlayState
	speed  fixed.Num
	events map[int][]string

	pos      fixed.Num
	backward bool
	holding  bool
	playing  bool
}

// AddAnimation registers an animation leaf. clip may be nil and bound later.
// A zero speed plays at 1x.
func (t *Tree) AddAnimation(name string, clip ports.ClipSource, play domain.PlayState, speed fixed.Num) (*Animation, error) {
	if clip != nil {
		if err := t.checkClip(clip); err != nil {
			return nil, err
		}
	}
	if play == "" {
		play = domain.PlayLoop
	}
	if !play.Valid() {
		return nil, fmt.Errorf("invalid play state %q", play)
	}
	if speed == 0 {
		speed = fixed.One
	}

	n, err := t.register(name, domain.KindAnimation, func(base node) Node {
		return &Animation{node: base, clip: clip, play: play, speed: speed, events: make(map[int][]string)}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Animation), nil
}

func (t *Tree) checkClip(clip ports.ClipSource) error {
	for i := 0; i < clip.Len(); i++ {
		if got := len(clip.Frame(i).Tracks); got != t.trackCount {
			return fmt.Errorf("clip %q frame %d: %w (got %d, want %d)", clip.Name(), i, domain.ErrTrackCount, got, t.trackCount)
		}
	}
	return nil
}

// Bind replaces the clip and rewinds the playhead. A nil clip unbinds.
func (a *Animation) Bind(clip ports.ClipSource) error {
	if clip != nil {
		if err := a.tree.checkClip(clip); err != nil {
			return err
		}
	}
	a.clip = clip
	a.tree.invalidateMasks()
	a.Reset()
	return nil
}

// Clip returns the bound clip, or nil.
func (a *Animation) Clip() ports.ClipSource { return a.clip }

// OnFrame registers an event emitted whenever playback lands on frame.
// Events of one frame are emitted in registration order.
func (a *Animation) OnFrame(frame int, event string) {
	a.events[frame] = append(a.events[frame], event)
}

// Events returns the registered events keyed by frame.
func (a *Animation) Events() map[int][]string {
	out := make(map[int][]string, len(a.events))
	for f, evs := range a.events {
		out[f] = append([]string(nil), evs...)
	}
	return out
}

// Speed returns the playback rate multiplier.
func (a *Animation) Speed() fixed.Num { return a.speed }

// SetSpeed changes the playback rate. Zero restores 1x.
func (a *Animation) SetSpeed(s fixed.Num) {
	if s == 0 {
		s = fixed.One
	}
	a.speed = s
}

func (a *Animation) PlayState() domain.PlayState { return a.play }

func (a *Animation) SetPlayState(p domain.PlayState) {
	if p.Valid() {
		a.play = p
		a.holding = false
	}
}

func (a *Animation) Holding() bool { return a.holding }

func (a *Animation) Frame() int { return a.pos.Int() }

// Ratio is the playhead position over the last frame index.
func (a *Animation) Ratio() fixed.Num {
	if a.clip == nil {
		return fixed.Zero
	}
	last := a.clip.Len() - 1
	if last <= 0 {
		return fixed.One
	}
	return fixed.Div(a.pos, fixed.FromInt(last)).Unit()
}

func (a *Animation) Reset() {
	a.pos = 0
	a.backward = false
	a.holding = false
	a.playing = false
}

func (a *Animation) Mask() domain.TrackMask {
	if a.clip == nil {
		return domain.TrackMask{}
	}
	return a.clip.Mask()
}

func (a *Animation) tick(stamp uint64, run bool, step fixed.Num) error {
	if !run || a.clip == nil || a.clip.Len() == 0 {
		a.Reset()
		return nil
	}

	prev := a.Frame()
	fresh := !a.playing
	a.playing = true
	delta := fixed.Mul(step, a.speed)
	a.advance(delta)

	// A repeating clip moved by whole cycles lands on the frame it left and
	// still plays it. A held Once frame and sub-frame moves do not re-fire.
	frame := a.Frame()
	cycled := a.play != domain.PlayOnce && delta.Abs() >= fixed.One
	if frame == prev && !fresh && !cycled {
		return nil
	}
	for _, ev := range a.events[frame] {
		a.tree.emitFrame(stamp, a.name, frame, ev)
	}
	return nil
}

func (a *Animation) advance(delta fixed.Num) {
	n := a.clip.Len()
	last := fixed.FromInt(n - 1)

	switch a.play {
	case domain.PlayOnce:
		a.pos += delta
		if a.pos < 0 {
			a.pos = 0
		}
		if a.pos >= last {
			a.pos = last
			a.holding = true
		}

	case domain.PlayPingPong:
		if n == 1 {
			a.pos = 0
			return
		}
		a.pingPong(delta, last)

	default:
		length := fixed.FromInt(n)
		a.pos = (a.pos + delta%length + length) % length
	}
}

// pingPong walks the playhead between 0 and last, flipping direction on
// reaching either bound.
func (a *Animation) pingPong(delta, last fixed.Num) {
	reverse := delta < 0
	if reverse {
		delta = -delta
		a.backward = !a.backward
	}
	delta %= 2 * last

	for delta > 0 {
		if a.backward {
			if delta < a.pos {
				a.pos -= delta
				break
			}
			delta -= a.pos
			a.pos = 0
			a.backward = false
			continue
		}
		room := last - a.pos
		if delta < room {
			a.pos += delta
			break
		}
		delta -= room
		a.pos = last
		a.backward = true
	}

	if reverse {
		a.backward = !a.backward
	}
}

func (a *Animation) compute(uint64) (domain.PoseOutput, error) {
	if a.clip == nil || a.clip.Len() == 0 {
		return domain.NewPose(a.tree.trackCount), nil
	}
	return a.clip.Frame(a.Frame()), nil
}

func (a *Animation) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	out, err := a.compute(stamp)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return out.Track(track), nil
}
