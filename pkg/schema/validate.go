package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/ports"
)

// ValidateGraph checks a set of node definitions for configuration errors.
// root may be empty to skip the root check. clips may be nil, in which case
// clip references and frame ranges are not checked.
func ValidateGraph(defs []domain.NodeDef, root string, clips ports.ClipLibrary) error {
	v := &validator{clips: clips, byID: make(map[string]domain.NodeDef, len(defs))}

	sorted := make([]domain.NodeDef, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, def := range sorted {
		if def.ID == "" {
			v.fail(&ValidationError{Key: "id", Reason: "required"})
			continue
		}
		if _, dup := v.byID[def.ID]; dup {
			v.fail(&ValidationError{Node: def.ID, Key: "id", Reason: "duplicate node id"})
			continue
		}
		v.byID[def.ID] = def
		v.order = append(v.order, def.ID)
	}

	if root != "" {
		if _, ok := v.byID[root]; !ok {
			v.fail(&ValidationError{Node: root, Reason: "root node is not defined", Err: domain.ErrUnknownNode})
		}
	}

	for _, id := range v.order {
		v.node(v.byID[id])
	}
	v.cycles()

	if len(v.errs) > 0 {
		return &AggregateError{Errors: v.errs}
	}
	return nil
}

type validator struct {
	clips ports.ClipLibrary
	byID  map[string]domain.NodeDef
	order []string
	errs  []error
}

func (v *validator) fail(err *ValidationError) {
	v.errs = append(v.errs, err)
}

func (v *validator) node(def domain.NodeDef) {
	if !def.Kind.Valid() {
		v.fail(&ValidationError{Node: def.ID, Key: "kind", Value: def.Kind, Err: domain.ErrUnknownKind})
		return
	}

	v.inputs(def)

	switch def.Kind {
	case domain.KindAnimation:
		if def.Play != "" && !def.Play.Valid() {
			v.fail(&ValidationError{Node: def.ID, Key: "play", Reason: "unknown play state", Value: def.Play})
		}
		if def.Clip != "" {
			if n, ok := v.clipLen(def, "clip"); ok {
				for frame := range def.Events {
					if frame < 0 || frame >= n {
						v.fail(&ValidationError{Node: def.ID, Key: "events", Reason: fmt.Sprintf("frame out of range [0,%d)", n), Value: frame})
					}
				}
			}
		}

	case domain.KindConstant:
		if def.Clip == "" {
			v.fail(&ValidationError{Node: def.ID, Key: "clip", Reason: "required", Err: domain.ErrUnknownClip})
			break
		}
		if n, ok := v.clipLen(def, "clip"); ok && (def.Frame < 0 || def.Frame >= n) {
			v.fail(&ValidationError{Node: def.ID, Key: "frame", Reason: fmt.Sprintf("frame out of range [0,%d)", n), Value: def.Frame})
		}

	case domain.KindOverlay:
		if def.Policy != "" && !def.Policy.Valid() {
			v.fail(&ValidationError{Node: def.ID, Key: "policy", Reason: "unknown end policy", Value: def.Policy})
		}
		if def.FadeTicks < 0 {
			v.fail(&ValidationError{Node: def.ID, Key: "fade_ticks", Reason: "must not be negative", Value: def.FadeTicks})
		}

	case domain.KindCrossfade:
		if def.SwitchTicks < 0 {
			v.fail(&ValidationError{Node: def.ID, Key: "switch_ticks", Reason: "must not be negative", Value: def.SwitchTicks})
		}
	}
}

// clipLen resolves the clip of def. It reports false when the clip cannot be
// checked, either because no library was given or because it is unknown.
func (v *validator) clipLen(def domain.NodeDef, key string) (int, bool) {
	if v.clips == nil {
		return 0, false
	}
	clip, err := v.clips.GetClip(def.Clip)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownClip) {
			err = fmt.Errorf("%w: %v", domain.ErrUnknownClip, err)
		}
		v.fail(&ValidationError{Node: def.ID, Key: key, Value: def.Clip, Err: err})
		return 0, false
	}
	return clip.Len(), true
}

func (v *validator) inputs(def domain.NodeDef) {
	required := domain.Slots[def.Kind]
	known := make(map[string]bool, len(required))
	for _, slot := range required {
		known[slot] = true
	}

	extra := make([]string, 0)
	for slot := range def.Inputs {
		if !known[slot] {
			extra = append(extra, slot)
		}
	}
	sort.Strings(extra)
	for _, slot := range extra {
		v.fail(&ValidationError{Node: def.ID, Key: slot, Reason: fmt.Sprintf("unknown input slot for %s", def.Kind)})
	}

	leafOnly := make(map[string]bool)
	for _, slot := range domain.LeafSlots[def.Kind] {
		leafOnly[slot] = true
	}

	for _, slot := range required {
		ref := def.Inputs[slot]
		if ref == "" {
			v.fail(&ValidationError{Node: def.ID, Key: slot, Err: domain.ErrMissingChild})
			continue
		}
		child, ok := v.byID[ref]
		if !ok {
			v.fail(&ValidationError{Node: def.ID, Key: slot, Value: ref, Err: domain.ErrUnknownNode})
			continue
		}
		if leafOnly[slot] && !child.Kind.IsLeaf() {
			v.fail(&ValidationError{Node: def.ID, Key: slot, Value: ref, Err: domain.ErrNotLeaf})
		}
	}
}

// cycles reports every node that closes a cycle, using a colored DFS.
func (v *validator) cycles() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(v.byID))

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		def := v.byID[id]
		for _, child := range def.Children() {
			if _, ok := v.byID[child]; !ok {
				continue
			}
			switch color[child] {
			case grey:
				v.fail(&ValidationError{Node: id, Reason: fmt.Sprintf("input %q closes a cycle", child), Err: domain.ErrCycle})
			case white:
				visit(child)
			}
		}
		color[id] = black
	}

	for _, id := range v.order {
		if color[id] == white {
			visit(id)
		}
	}
}
