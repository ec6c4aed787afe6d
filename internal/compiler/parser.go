package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting raw bytes into a NodeDef.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes one node document. Documents starting with '{' are read as
// JSON, anything else as YAML. Decimal values are converted to fixed point
// from their text form, never through float arithmetic.
func (p *Parser) Parse(data []byte) (*domain.NodeDef, error) {
	raw, err := decodeMap(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node: %w", err)
	}

	var node domain.NodeDef
	if err := decode(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	if node.ID == "" {
		return nil, fmt.Errorf("node missing ID")
	}
	return &node, nil
}

// Graph is a whole graph in one document.
type Graph struct {
	Root  string           `mapstructure:"root"`
	Nodes []domain.NodeDef `mapstructure:"nodes"`
}

// ParseGraph decodes a single document holding a root and a list of nodes.
func (p *Parser) ParseGraph(data []byte) (*Graph, error) {
	raw, err := decodeMap(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	var g Graph
	if err := decode(raw, &g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	for i, n := range g.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node #%d missing ID", i)
		}
	}
	return &g, nil
}

// LoadAll reads and parses every node the loader knows, in ListNodes order.
func (p *Parser) LoadAll(loader ports.GraphLoader) ([]domain.NodeDef, error) {
	ids, err := loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defs := make([]domain.NodeDef, 0, len(ids))
	for _, id := range ids {
		raw, err := loader.GetNode(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load node %s: %w", id, err)
		}
		def, err := p.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func decodeMap(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	raw := make(map[string]any)
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(fixedHook),
			mapstructure.DecodeHookFuncType(eventsHook),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var (
	numType    = reflect.TypeOf(fixed.Num(0))
	eventsType = reflect.TypeOf(map[int][]string(nil))
)

// fixedHook converts scalars bound for fixed.Num fields.
func fixedHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != numType {
		return data, nil
	}
	switch v := data.(type) {
	case fixed.Num:
		return v, nil
	case string:
		return fixed.Parse(v)
	case json.Number:
		return fixed.Parse(v.String())
	case float64:
		return fixed.Parse(strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		return fixed.Parse(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case int:
		return fixed.FromInt(v), nil
	case int64:
		return fixed.FromInt(int(v)), nil
	case uint64:
		return fixed.FromInt(int(v)), nil
	case nil:
		return fixed.Zero, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a fixed-point number", data)
}

// eventsHook accepts frame events as a list of {frame, event} or
// {frame, events} entries besides the map keyed by frame. Frontmatter
// stores the list form.
func eventsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != eventsType {
		return data, nil
	}
	list, ok := data.([]any)
	if !ok {
		return data, nil
	}

	out := make(map[int][]string, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("events entry #%d: expected a mapping, got %T", i, item)
		}
		if _, ok := m["frame"]; !ok {
			return nil, fmt.Errorf("events entry #%d: missing frame", i)
		}
		var entry struct {
			Frame  int      `mapstructure:"frame"`
			Event  string   `mapstructure:"event"`
			Events []string `mapstructure:"events"`
		}
		if err := mapstructure.WeakDecode(m, &entry); err != nil {
			return nil, fmt.Errorf("events entry #%d: %w", i, err)
		}
		names := entry.Events
		if entry.Event != "" {
			names = append([]string{entry.Event}, names...)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("events entry #%d: frame %d names no event", i, entry.Frame)
		}
		out[entry.Frame] = append(out[entry.Frame], names...)
	}
	return out, nil
}
