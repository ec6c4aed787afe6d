package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/ports"
)

// ClipLibrary implements ports.ClipLibrary over clips held in memory.
type ClipLibrary struct {
	trackCount int
	clips      map[string]*domain.Clip
}

// NewClipLibrary creates a library for poses of trackCount tracks.
// Later clips replace earlier ones with the same name.
func NewClipLibrary(trackCount int, clips ...*domain.Clip) *ClipLibrary {
	l := &ClipLibrary{trackCount: trackCount, clips: make(map[string]*domain.Clip, len(clips))}
	for _, c := range clips {
		l.clips[c.Name()] = c
	}
	return l
}

// Add registers a clip after checking its track count.
func (l *ClipLibrary) Add(c *domain.Clip) error {
	if err := c.Validate(l.trackCount); err != nil {
		return err
	}
	l.clips[c.Name()] = c
	return nil
}

func (l *ClipLibrary) GetClip(name string) (ports.ClipSource, error) {
	c, ok := l.clips[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownClip, name)
	}
	return c, nil
}

func (l *ClipLibrary) ListClips() ([]string, error) {
	names := make([]string, 0, len(l.clips))
	for n := range l.clips {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (l *ClipLibrary) TrackCount() int { return l.trackCount }
