package domain

import (
	"encoding/json"
	"math/bits"
	"strconv"
	"strings"
)

// TrackMask marks which tracks a pose defines.
// It is immutable: every operation returns a new mask.
type TrackMask struct {
	words []uint64
}

// NewTrackMask builds a mask containing the given track indices. Negative indices are ignored.
func NewTrackMask(tracks ...int) TrackMask {
	var words []uint64
	for _, t := range tracks {
		if t < 0 {
			continue
		}
		w := t / 64
		for len(words) <= w {
			words = append(words, 0)
		}
		words[w] |= 1 << uint(t%64)
	}
	return TrackMask{words: words}
}

// FullMask returns a mask with tracks [0, n) set.
func FullMask(n int) TrackMask {
	tracks := make([]int, n)
	for i := range tracks {
		tracks[i] = i
	}
	return NewTrackMask(tracks...)
}

func (m TrackMask) Has(track int) bool {
	if track < 0 {
		return false
	}
	w := track / 64
	if w >= len(m.words) {
		return false
	}
	return m.words[w]&(1<<uint(track%64)) != 0
}

func (m TrackMask) Union(o TrackMask) TrackMask {
	n := max(len(m.words), len(o.words))
	words := make([]uint64, n)
	for i := range words {
		if i < len(m.words) {
			words[i] |= m.words[i]
		}
		if i < len(o.words) {
			words[i] |= o.words[i]
		}
	}
	return TrackMask{words: words}
}

func (m TrackMask) Intersect(o TrackMask) TrackMask {
	n := min(len(m.words), len(o.words))
	words := make([]uint64, n)
	for i := range words {
		words[i] = m.words[i] & o.words[i]
	}
	return TrackMask{words: words}
}

// Len returns the number of tracks in the mask.
func (m TrackMask) Len() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m TrackMask) IsEmpty() bool { return m.Len() == 0 }

// Tracks lists the track indices in ascending order.
func (m TrackMask) Tracks() []int {
	out := make([]int, 0, m.Len())
	for i, w := range m.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}

// Equal compares set membership, ignoring trailing empty words.
func (m TrackMask) Equal(o TrackMask) bool {
	n := max(len(m.words), len(o.words))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(m.words) {
			a = m.words[i]
		}
		if i < len(o.words) {
			b = o.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

func (m TrackMask) String() string {
	tracks := m.Tracks()
	parts := make([]string, len(tracks))
	for i, t := range tracks {
		parts[i] = strconv.Itoa(t)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON encodes the mask as a sorted list of track indices.
func (m TrackMask) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Tracks())
}

func (m *TrackMask) UnmarshalJSON(data []byte) error {
	var tracks []int
	if err := json.Unmarshal(data, &tracks); err != nil {
		return err
	}
	*m = NewTrackMask(tracks...)
	return nil
}
