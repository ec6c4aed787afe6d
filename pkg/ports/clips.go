package ports

import "github.com/aretw0/posegraph/pkg/domain"

// ClipSource is a read-only sampled animation.
type ClipSource interface {
	Name() string
	// Len returns the number of frames.
	Len() int
	// Frame returns the pose stored for frame i.
	Frame(i int) domain.PoseOutput
	// Mask returns the tracks the clip animates.
	Mask() domain.TrackMask
}

// ClipLibrary resolves clips by name. All clips of a library share one track count.
type ClipLibrary interface {
	// GetClip returns domain.ErrUnknownClip if the clip does not exist.
	GetClip(name string) (ClipSource, error)
	ListClips() ([]string, error)
	TrackCount() int
}

// EventSink receives frame events in emission order.
type EventSink interface {
	Emit(event domain.FrameEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(domain.FrameEvent)

func (f EventSinkFunc) Emit(event domain.FrameEvent) { f(event) }
