// Package capture provides frame sources for the tracking producer.
package capture

import (
	"encoding/base64"
	"fmt"
	"sync/atomic"
)

// Synthetic generates deterministic JPEG-shaped data URLs. It stands in for a
// camera on nodes that have no capture hardware attached.
type Synthetic struct {
	seq    atomic.Uint64
	width  int
	height int
}

func NewSynthetic(width, height int) *Synthetic {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &Synthetic{width: width, height: height}
}

// Grab returns the next synthetic frame. It never fails.
func (s *Synthetic) Grab() ([]byte, bool) {
	n := s.seq.Add(1)
	body := fmt.Sprintf("frame=%d;w=%d;h=%d", n, s.width, s.height)
	enc := base64.StdEncoding.EncodeToString([]byte(body))
	return []byte("data:image/jpeg;base64," + enc), true
}

// Frames reports how many frames have been produced so far.
func (s *Synthetic) Frames() uint64 {
	return s.seq.Load()
}

// Func adapts a plain function to a frame source.
type Func func() ([]byte, bool)

func (f Func) Grab() ([]byte, bool) { return f() }
