package file

import (
	"fmt"
	"os"

	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"gopkg.in/yaml.v3"
)

// DefaultClipsFile is the clip library looked up next to a graph directory.
const DefaultClipsFile = "clips.yaml"

// clipsDoc is the on-disk layout of a clip library:
//
//	tracks: 2
//	clips:
//	  - name: wave
//	    mask: [1]            # optional, all tracks by default
//	    frames:
//	      - [{}, {t: [0, 1, 0], r: [0, 0, 0.7071, 0.7071]}]
//
// Each frame lists one entry per track. Omitted t/r/s default to identity.
type clipsDoc struct {
	Tracks int       `yaml:"tracks"`
	Clips  []clipDoc `yaml:"clips"`
}

type clipDoc struct {
	Name   string           `yaml:"name"`
	Mask   []int            `yaml:"mask"`
	Frames [][]transformDoc `yaml:"frames"`
}

type transformDoc struct {
	T []number `yaml:"t"`
	R []number `yaml:"r"`
	S []number `yaml:"s"`
}

// number reads a YAML scalar straight from its source text so decimals never
// pass through float64.
type number fixed.Num

func (n *number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	v, err := fixed.Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = number(v)
	return nil
}

// LoadClips reads a clip library from a YAML file.
func LoadClips(path string) (*memory.ClipLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip library: %w", err)
	}
	lib, err := ParseClips(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// ParseClips decodes a clip library document.
func ParseClips(data []byte) (*memory.ClipLibrary, error) {
	var doc clipsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse clip library: %w", err)
	}
	if doc.Tracks <= 0 {
		return nil, fmt.Errorf("clip library must declare a positive track count")
	}

	lib := memory.NewClipLibrary(doc.Tracks)
	seen := make(map[string]bool, len(doc.Clips))
	for i, c := range doc.Clips {
		if c.Name == "" {
			return nil, fmt.Errorf("clip #%d missing name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate clip %q", c.Name)
		}
		seen[c.Name] = true

		clip, err := c.toClip(doc.Tracks)
		if err != nil {
			return nil, err
		}
		if err := lib.Add(clip); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (c clipDoc) toClip(trackCount int) (*domain.Clip, error) {
	mask := domain.FullMask(trackCount)
	if c.Mask != nil {
		for _, t := range c.Mask {
			if t < 0 || t >= trackCount {
				return nil, fmt.Errorf("clip %q: mask track %d out of range", c.Name, t)
			}
		}
		mask = domain.NewTrackMask(c.Mask...)
	}

	frames := make([]domain.PoseOutput, len(c.Frames))
	for i, f := range c.Frames {
		if len(f) != trackCount {
			return nil, fmt.Errorf("clip %q frame %d: %w (got %d, want %d)", c.Name, i, domain.ErrTrackCount, len(f), trackCount)
		}
		pose := domain.NewPose(trackCount)
		for t, td := range f {
			tr, err := td.transform()
			if err != nil {
				return nil, fmt.Errorf("clip %q frame %d track %d: %w", c.Name, i, t, err)
			}
			pose.Tracks[t] = tr
		}
		frames[i] = pose
	}
	return domain.NewClip(c.Name, mask, frames...), nil
}

func (d transformDoc) transform() (domain.Transform, error) {
	tr := domain.Identity()
	if d.T != nil {
		if len(d.T) != 3 {
			return tr, fmt.Errorf("t needs 3 components, got %d", len(d.T))
		}
		tr.Translation = domain.Vec3{X: fixed.Num(d.T[0]), Y: fixed.Num(d.T[1]), Z: fixed.Num(d.T[2])}
	}
	if d.R != nil {
		if len(d.R) != 4 {
			return tr, fmt.Errorf("r needs 4 components, got %d", len(d.R))
		}
		tr.Rotation = domain.Quat{X: fixed.Num(d.R[0]), Y: fixed.Num(d.R[1]), Z: fixed.Num(d.R[2]), W: fixed.Num(d.R[3])}
	}
	if d.S != nil {
		if len(d.S) != 3 {
			return tr, fmt.Errorf("s needs 3 components, got %d", len(d.S))
		}
		tr.Scale = domain.Vec3{X: fixed.Num(d.S[0]), Y: fixed.Num(d.S[1]), Z: fixed.Num(d.S[2])}
	}
	return tr, nil
}
