package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Action is one scripted control applied before a given tick is evaluated.
type Action struct {
	Tick  int
	Op    string
	Node  string
	Value string
}

// ParseScript parses "TICK:OP:NODE[=VALUE]" entries, e.g. "3:start:wave" or
// "5:weight:look=0.5,-1". Actions are returned ordered by tick, keeping the
// given order within a tick.
func ParseScript(entries []string) ([]Action, error) {
	actions := make([]Action, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid action %q: want TICK:OP:NODE[=VALUE]", entry)
		}
		tick, err := strconv.Atoi(parts[0])
		if err != nil || tick < 1 {
			return nil, fmt.Errorf("invalid action %q: tick must be a positive integer", entry)
		}
		node, value, _ := strings.Cut(parts[2], "=")
		a := Action{Tick: tick, Op: parts[1], Node: node, Value: value}
		if a.Node == "" {
			return nil, fmt.Errorf("invalid action %q: missing node", entry)
		}
		if err := a.check(); err != nil {
			return nil, fmt.Errorf("invalid action %q: %w", entry, err)
		}
		actions = append(actions, a)
	}
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Tick < actions[j].Tick })
	return actions, nil
}

func (a Action) check() error {
	switch a.Op {
	case "start", "stop":
		return nil
	case "flag":
		_, err := strconv.ParseBool(a.Value)
		return err
	case "weight":
		_, _, _, err := a.weights()
		return err
	case "speed":
		_, err := fixed.Parse(a.Value)
		return err
	case "play":
		if !domain.PlayState(a.Value).Valid() {
			return fmt.Errorf("unknown play state %q", a.Value)
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", a.Op)
}

func (a Action) weights() (x, y fixed.Num, twoD bool, err error) {
	xs, ys, twoD := strings.Cut(a.Value, ",")
	if x, err = fixed.Parse(xs); err != nil {
		return 0, 0, false, err
	}
	if twoD {
		if y, err = fixed.Parse(ys); err != nil {
			return 0, 0, false, err
		}
	}
	return x, y, twoD, nil
}

// Apply runs the action against eng.
func (a Action) Apply(eng *posegraph.Engine) error {
	switch a.Op {
	case "start":
		return eng.StartOverlay(a.Node)
	case "stop":
		return eng.StopOverlay(a.Node)
	case "flag":
		toB, _ := strconv.ParseBool(a.Value)
		return eng.SetFlag(a.Node, toB)
	case "weight":
		x, y, twoD, _ := a.weights()
		if twoD {
			return eng.SetWeight2D(a.Node, x, y)
		}
		return eng.SetWeight(a.Node, x)
	case "speed":
		s, _ := fixed.Parse(a.Value)
		return eng.SetSpeed(a.Node, s)
	case "play":
		return eng.SetPlayState(a.Node, domain.PlayState(a.Value))
	}
	return fmt.Errorf("unknown op %q", a.Op)
}

// lastTick returns the last tick any action targets.
func lastTick(actions []Action) int {
	if len(actions) == 0 {
		return 0
	}
	return actions[len(actions)-1].Tick
}
