package memory

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/posegraph/pkg/domain"
)

// Loader serves pose-graph node documents from memory. Each entry is one
// node document in the shape the compiler parses: a JSON object or a YAML
// mapping holding id, kind, inputs and the kind's parameters.
type Loader struct {
	docs map[string][]byte
	ids  []string
}

// NewLoader wraps node documents keyed by node id.
func NewLoader(docs map[string]string) *Loader {
	l := &Loader{docs: make(map[string][]byte, len(docs))}
	for id, doc := range docs {
		l.docs[id] = []byte(doc)
	}
	l.index()
	return l
}

// NewFromDefs encodes node definitions as JSON documents. Every definition
// needs an id and ids must be unique.
func NewFromDefs(defs ...domain.NodeDef) (*Loader, error) {
	l := &Loader{docs: make(map[string][]byte, len(defs))}
	for i, def := range defs {
		if strings.TrimSpace(def.ID) == "" {
			return nil, fmt.Errorf("node #%d (%s) has no id", i, def.Kind)
		}
		if _, dup := l.docs[def.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNode, def.ID)
		}
		doc, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("encoding node %s: %w", def.ID, err)
		}
		l.docs[def.ID] = doc
	}
	l.index()
	return l, nil
}

func (l *Loader) index() {
	l.ids = make([]string, 0, len(l.docs))
	for id := range l.docs {
		l.ids = append(l.ids, id)
	}
	slices.Sort(l.ids)
}

// GetNode returns the document of node id.
func (l *Loader) GetNode(id string) ([]byte, error) {
	doc, ok := l.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNode, id)
	}
	return doc, nil
}

// ListNodes returns node ids in ascending order, the order graphs compile in.
func (l *Loader) ListNodes() ([]string, error) {
	return slices.Clone(l.ids), nil
}
