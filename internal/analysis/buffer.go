// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// IngestBuffer is the staging area between the producer (an audio delivery
// callback) and the analysis loop. The producer appends variable-length
// chunks with Push; the consumer removes fixed-size frames with PopFrame.
// One mutex covers both operations and is held only for the copy.
//
// Backpressure is lossy on purpose: a chunk that does not fit in the
// remaining space is dropped whole, never written partially, so the
// producer always returns in bounded time. Dropped chunks are counted.
//
// Single-producer, single-consumer. Concurrent pushes from multiple
// goroutines would need coordination the producer side does not provide.
type IngestBuffer struct {
	mu        sync.Mutex
	samples   []float64 // fixed backing store, len(samples) == capacity
	occupancy int       // valid samples at the front of the store
	frameSize int
	dropped   atomic.Uint64
}

// NewIngestBuffer creates a buffer that pops frames of frameSize samples.
// Capacity must be at least 2*frameSize so a full producer chunk and a
// consumer frame never contend for the same region; pass 0 to use exactly
// that minimum.
func NewIngestBuffer(frameSize, capacity int) (*IngestBuffer, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}
	if capacity == 0 {
		capacity = 2 * frameSize
	}
	if capacity < 2*frameSize {
		return nil, fmt.Errorf("capacity must be at least 2*frameSize (%d), got %d", 2*frameSize, capacity)
	}
	return &IngestBuffer{
		samples:   make([]float64, capacity),
		frameSize: frameSize,
	}, nil
}

// Push appends chunk to the buffer. If the remaining space is smaller than
// the chunk, nothing is written, the drop counter is incremented and Push
// returns false. Chunks larger than the whole capacity are likewise dropped
// rather than rejected with an error.
func (b *IngestBuffer) Push(chunk []float64) bool {
	if len(chunk) == 0 {
		return true
	}

	b.mu.Lock()
	if len(chunk) > len(b.samples)-b.occupancy {
		b.mu.Unlock()
		b.dropped.Add(1)
		return false
	}
	copy(b.samples[b.occupancy:], chunk)
	b.occupancy += len(chunk)
	b.mu.Unlock()
	return true
}

// PopFrame copies the oldest frameSize samples into dst and removes them,
// returning true. If fewer than frameSize samples are buffered (underrun)
// no samples are consumed and PopFrame returns false. len(dst) must be
// exactly frameSize.
func (b *IngestBuffer) PopFrame(dst []float64) bool {
	if len(dst) != b.frameSize {
		return false
	}

	b.mu.Lock()
	if b.occupancy < b.frameSize {
		b.mu.Unlock()
		return false
	}
	copy(dst, b.samples[:b.frameSize])
	// Shift the remainder down so the oldest samples stay at the front.
	copy(b.samples, b.samples[b.frameSize:b.occupancy])
	b.occupancy -= b.frameSize
	b.mu.Unlock()
	return true
}

// Len returns the current occupancy in samples.
func (b *IngestBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.occupancy
}

// Cap returns the fixed capacity in samples.
func (b *IngestBuffer) Cap() int {
	return len(b.samples)
}

// FrameSize returns the fixed consumption unit in samples.
func (b *IngestBuffer) FrameSize() int {
	return b.frameSize
}

// Dropped returns the number of chunks rejected by Push since creation.
func (b *IngestBuffer) Dropped() uint64 {
	return b.dropped.Load()
}
