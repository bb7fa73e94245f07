package transcode

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSurfaceReleased is returned when publishing to a released surface.
var ErrSurfaceReleased = errors.New("transcode: surface released")

// defaultSurfaceCapacity bounds the frame queue of a surface created
// with capacity zero. Deep enough that a decoder rendering a burst of
// buffers does not stall before the pipeline drains the transformer.
const defaultSurfaceCapacity = 16

// Frame is one video frame in flight between pipeline stages.
//
// Pixels carries tightly packed pixel rows: 4-byte RGBA texels, or
// 8-byte RGBA16F texels for frames rendered under HDR editing. A
// producer whose consumer already holds the image elsewhere may
// publish with Pixels nil.
type Frame struct {
	// TimestampNs is the presentation timestamp in nanoseconds.
	TimestampNs int64

	// TexTransform is the transform to apply to texture coordinates
	// when sampling the frame, as provided by the producer.
	TexTransform Matrix

	// Pixels carries the frame's packed pixel rows.
	Pixels []byte
}

// Surface is the in-memory frame handle between two pipeline stages:
// a bounded FIFO that a producer publishes into and a consumer acquires
// from. It is the rendezvous the decoder renders into and the frame
// transformer (or encoder) reads from.
//
// Publish blocks while the queue is full, so a producer that outpaces
// the consumer stalls instead of dropping frames. Acquire never blocks.
//
// The frame-available callback runs on the publisher's goroutine,
// immediately after the frame is queued. Callbacks must be quick and
// must not call back into the publishing stage.
type Surface struct {
	width  int
	height int

	frames  chan Frame
	done    chan struct{}
	closing sync.Once

	onFrame atomic.Pointer[func()]
}

// NewSurface creates a surface with the given pixel dimensions and
// queue capacity. Capacity zero selects the default.
func NewSurface(width, height, capacity int) *Surface {
	if capacity <= 0 {
		capacity = defaultSurfaceCapacity
	}
	return &Surface{
		width:  width,
		height: height,
		frames: make(chan Frame, capacity),
		done:   make(chan struct{}),
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// SetOnFrameAvailable registers the callback invoked after each
// successful Publish, on the publisher's goroutine. Pass nil to remove
// the callback.
func (s *Surface) SetOnFrameAvailable(fn func()) {
	if fn == nil {
		s.onFrame.Store(nil)
		return
	}
	s.onFrame.Store(&fn)
}

// Publish queues a frame, blocking while the surface is full. It
// returns ErrSurfaceReleased if the surface is released before the
// frame is queued.
func (s *Surface) Publish(f Frame) error {
	select {
	case s.frames <- f:
	case <-s.done:
		return ErrSurfaceReleased
	}
	if fn := s.onFrame.Load(); fn != nil {
		(*fn)()
	}
	return nil
}

// Acquire dequeues the oldest queued frame without blocking. The
// second return value is false when no frame is queued.
func (s *Surface) Acquire() (Frame, bool) {
	select {
	case f := <-s.frames:
		return f, true
	default:
		return Frame{}, false
	}
}

// Pending returns the number of queued frames.
func (s *Surface) Pending() int { return len(s.frames) }

// Release unblocks pending and future publishers. Safe to call
// multiple times. Queued frames stay acquirable.
func (s *Surface) Release() {
	s.closing.Do(func() { close(s.done) })
}
