package scenewatch

import (
	"sync"

	"github.com/pkg/errors"
)

// Frame is one acquired frame's worth of tracker output. Seq is assigned by
// the producer and is independent of the monitor's frame clock, which only
// counts processed frames.
type Frame struct {
	Seq          int64
	Observations []Observation
}

// FrameQueue is a small bounded queue decoupling frame acquisition from
// frame processing. Under backpressure it drops the oldest queued frame:
// skipping stale frames is preferable to replaying a stale scene state.
// One producer and one consumer are assumed.
type FrameQueue struct {
	frames  chan Frame
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewFrameQueue creates a queue with the given capacity. Useful capacities
// are small (1 to 3 frames), larger ones only add latency.
func NewFrameQueue(capacity int) (*FrameQueue, error) {
	if capacity < 1 {
		return nil, errors.Errorf("frame queue capacity must be >= 1, got %d", capacity)
	}
	return &FrameQueue{
		frames: make(chan Frame, capacity),
	}, nil
}

// Push enqueues a frame without ever blocking. If the queue is full the
// oldest queued frame is dropped to make room. Returns false if the queue
// is closed or a drop was needed.
func (queue *FrameQueue) Push(frame Frame) bool {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.closed {
		return false
	}
	select {
	case queue.frames <- frame:
		return true
	default:
	}
	// Full: evict the stalest frame, then enqueue
	select {
	case <-queue.frames:
		queue.dropped++
	default:
	}
	select {
	case queue.frames <- frame:
	default:
	}
	return false
}

// Pop blocks until a frame is available or the queue is closed and drained
func (queue *FrameQueue) Pop() (Frame, bool) {
	frame, ok := <-queue.frames
	return frame, ok
}

// TryPop returns the next frame without blocking
func (queue *FrameQueue) TryPop() (Frame, bool) {
	select {
	case frame, ok := <-queue.frames:
		return frame, ok
	default:
		return Frame{}, false
	}
}

// Dropped returns how many frames were evicted under backpressure
func (queue *FrameQueue) Dropped() int64 {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return queue.dropped
}

// Close stops the queue. Already queued frames remain poppable. Idempotent.
func (queue *FrameQueue) Close() {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.closed {
		return
	}
	queue.closed = true
	close(queue.frames)
}
