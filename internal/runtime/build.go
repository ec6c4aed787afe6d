package runtime

import (
	"fmt"
	"sort"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/aretw0/posegraph/pkg/schema"
)

// Build validates defs and compiles them into a Tree whose root is the node
// named root. Every definition is built, reachable from root or not; children
// are created before their parents in a deterministic order.
func Build(defs []domain.NodeDef, root string, clips ports.ClipLibrary, opts ...Option) (*Tree, error) {
	if clips == nil {
		return nil, fmt.Errorf("a clip library is required")
	}
	if err := schema.ValidateGraph(defs, root, clips); err != nil {
		return nil, err
	}

	b := &builder{
		tree:  NewTree(clips.TrackCount(), opts...),
		clips: clips,
		defs:  make(map[string]domain.NodeDef, len(defs)),
		built: make(map[string]Handle, len(defs)),
	}
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		b.defs[d.ID] = d
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := b.build(id); err != nil {
			return nil, err
		}
	}
	if root != "" {
		if err := b.tree.SetRoot(b.built[root]); err != nil {
			return nil, err
		}
	}
	return b.tree, nil
}

type builder struct {
	tree  *Tree
	clips ports.ClipLibrary
	defs  map[string]domain.NodeDef
	built map[string]Handle
}

func (b *builder) build(id string) (Handle, error) {
	if h, ok := b.built[id]; ok {
		return h, nil
	}
	def := b.defs[id]

	children := make([]Handle, 0, len(domain.Slots[def.Kind]))
	for _, ref := range def.Children() {
		h, err := b.build(ref)
		if err != nil {
			return NoHandle, err
		}
		children = append(children, h)
	}

	n, err := b.create(def, children)
	if err != nil {
		return NoHandle, fmt.Errorf("build node %q: %w", id, err)
	}
	b.built[id] = n.Handle()
	return n.Handle(), nil
}

func (b *builder) create(def domain.NodeDef, c []Handle) (Node, error) {
	t := b.tree
	switch def.Kind {
	case domain.KindAnimation:
		var clip ports.ClipSource
		if def.Clip != "" {
			var err error
			if clip, err = b.clips.GetClip(def.Clip); err != nil {
				return nil, err
			}
		}
		a, err := t.AddAnimation(def.ID, clip, def.Play, def.Speed)
		if err != nil {
			return nil, err
		}
		for _, frame := range sortedKeys(def.Events) {
			for _, ev := range def.Events[frame] {
				a.OnFrame(frame, ev)
			}
		}
		return a, nil

	case domain.KindConstant:
		clip, err := b.clips.GetClip(def.Clip)
		if err != nil {
			return nil, err
		}
		return t.AddConstant(def.ID, clip.Frame(def.Frame))

	case domain.KindBinary:
		return t.AddBinary(def.ID, c[0], c[1], def.Weight)

	case domain.KindAxis:
		return t.AddAxis(def.ID, c[0], c[1], c[2], def.Weight)

	case domain.KindGrid:
		var slots [9]Handle
		copy(slots[:], c)
		return t.AddGrid(def.ID, slots, def.Weight, def.WeightY)

	case domain.KindOverlay:
		return t.AddOverlay(def.ID, c[0], c[1], def.Policy, def.FadeTicks)

	case domain.KindCrossfade:
		return t.AddCrossfade(def.ID, c[0], c[1], def.SwitchTicks, def.Flag)

	case domain.KindTransition:
		return t.AddTransition(def.ID, c[0], c[1], c[2], c[3], def.Window, def.Flag)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, def.Kind)
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
