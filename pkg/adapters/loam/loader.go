package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to the posegraph GraphLoader interface.
// Every document (Markdown frontmatter, JSON or YAML) describes one node.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// GetNode retrieves a node and re-encodes it as JSON for the compiler.
// The document body, if any, is kept as the "notes" metadata entry.
func (l *Loader) GetNode(id string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data := buildNodeData(doc.ID, doc.Data)

	meta := flattenMetadata(doc.Data.Metadata)
	if body := strings.TrimSpace(doc.Content); body != "" {
		meta["notes"] = body
	}
	if len(meta) > 0 {
		data["metadata"] = meta
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node data: %w", err)
	}
	return bytes, nil
}

func buildNodeData(docID string, meta NodeMetadata) map[string]any {
	data := make(map[string]any)

	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	data["id"] = trimExtension(rawID)
	data["kind"] = meta.Kind

	if len(meta.Inputs) > 0 {
		inputs := make(map[string]string, len(meta.Inputs))
		for slot, ref := range meta.Inputs {
			inputs[slot] = trimExtension(ref)
		}
		data["inputs"] = inputs
	}

	set := func(key string, v any) {
		if v == nil {
			return
		}
		if s, ok := v.(string); ok && s == "" {
			return
		}
		data[key] = normalize(v)
	}
	set("clip", meta.Clip)
	set("frame", meta.Frame)
	set("play", meta.Play)
	set("speed", meta.Speed)
	if len(meta.Events) > 0 {
		events := make([]any, 0, len(meta.Events))
		for _, fe := range meta.Events {
			entry := map[string]any{"frame": fe.Frame}
			if fe.Event != "" {
				entry["event"] = fe.Event
			}
			if len(fe.Events) > 0 {
				entry["events"] = fe.Events
			}
			events = append(events, entry)
		}
		data["events"] = events
	}
	set("weight", meta.Weight)
	set("weight_y", meta.WeightY)
	set("policy", meta.Policy)
	set("fade_ticks", meta.FadeTicks)
	set("switch_ticks", meta.SwitchTicks)
	set("window", meta.Window)
	if meta.Flag {
		data["flag"] = true
	}
	return data
}

// normalize rewrites YAML's map[any]any into string-keyed maps so the value
// survives json.Marshal.
func normalize(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	}
	return v
}

// ListNodes lists all nodes in the repository, sorted.
func (l *Loader) ListNodes() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		// Documents without a kind (clips.yaml, READMEs) are not nodes.
		if doc.Data.Kind == "" {
			continue
		}
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// flattenMetadata converts a nested map into a flat map[string]string,
// joining nested keys with '-'.
func flattenMetadata(src map[string]any) map[string]string {
	res := make(map[string]string)
	var visit func(prefix string, v any)

	visit = func(prefix string, v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, sub := range val {
				fullKey := k
				if prefix != "" {
					fullKey = prefix + "-" + k
				}
				visit(fullKey, sub)
			}
		case map[any]any:
			for k, sub := range val {
				strKey := fmt.Sprintf("%v", k)
				fullKey := strKey
				if prefix != "" {
					fullKey = prefix + "-" + strKey
				}
				visit(fullKey, sub)
			}
		case []any:
			var parts []string
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			res[prefix] = strings.Join(parts, " ")
		default:
			if prefix != "" {
				res[prefix] = fmt.Sprintf("%v", val)
			}
		}
	}

	for k, v := range src {
		visit(k, v)
	}
	return res
}
