// Package buffer holds captured samples between the audio callback and
// whoever drains them.
package buffer

import "sync"

// SampleBuffer is an append-only sample queue shared by one producer (the
// stream callback) and any number of drainers. With a capacity of zero it
// grows without bound; otherwise it is a ring that evicts the oldest samples.
type SampleBuffer struct {
	mu       sync.Mutex
	capacity int

	// unbounded mode
	samples []float32

	// ring mode: ring[head] is the oldest of size samples
	ring []float32
	head int
	size int

	dropped uint64
	total   uint64
}

// New creates a buffer. capacity <= 0 means unbounded.
func New(capacity int) *SampleBuffer {
	if capacity <= 0 {
		return &SampleBuffer{}
	}
	return &SampleBuffer{
		capacity: capacity,
		ring:     make([]float32, capacity),
	}
}

// Append copies samples onto the end of the buffer.
func (b *SampleBuffer) Append(samples ...float32) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += uint64(len(samples))
	if b.capacity == 0 {
		b.samples = append(b.samples, samples...)
		return
	}

	n := len(samples)
	if n >= b.capacity {
		b.dropped += uint64(b.size + n - b.capacity)
		copy(b.ring, samples[n-b.capacity:])
		b.head = 0
		b.size = b.capacity
		return
	}

	if over := b.size + n - b.capacity; over > 0 {
		b.head = (b.head + over) % b.capacity
		b.size -= over
		b.dropped += uint64(over)
	}

	tail := (b.head + b.size) % b.capacity
	copied := copy(b.ring[tail:], samples)
	copy(b.ring, samples[copied:])
	b.size += n
}

// Drain removes and returns everything buffered, oldest first.
func (b *SampleBuffer) Drain() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity == 0 {
		out := b.samples
		b.samples = nil
		if out == nil {
			out = []float32{}
		}
		return out
	}

	out := b.copyRingLocked()
	b.head = 0
	b.size = 0
	return out
}

// Snapshot returns a copy of the buffered samples without removing them.
func (b *SampleBuffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity == 0 {
		out := make([]float32, len(b.samples))
		copy(out, b.samples)
		return out
	}
	return b.copyRingLocked()
}

func (b *SampleBuffer) copyRingLocked() []float32 {
	out := make([]float32, b.size)
	n := copy(out, b.ring[b.head:min(b.head+b.size, b.capacity)])
	copy(out[n:], b.ring[:b.size-n])
	return out
}

// Len is the number of samples currently buffered.
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capacity == 0 {
		return len(b.samples)
	}
	return b.size
}

// Capacity returns the ring size, or 0 for an unbounded buffer.
func (b *SampleBuffer) Capacity() int { return b.capacity }

// Dropped counts samples evicted to make room for newer ones.
func (b *SampleBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Total counts every sample ever appended.
func (b *SampleBuffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Reset discards buffered samples and counters.
func (b *SampleBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
	b.head, b.size = 0, 0
	b.dropped, b.total = 0, 0
}
