package buffer

import (
	"sync"
	"testing"
)

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUnboundedAppendDrain(t *testing.T) {
	b := New(0)
	b.Append(1, 2)
	b.Append()
	b.Append(3)

	if b.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", b.Len())
	}
	if got := b.Snapshot(); !equal(got, []float32{1, 2, 3}) {
		t.Fatalf("unexpected snapshot %v", got)
	}
	if got := b.Drain(); !equal(got, []float32{1, 2, 3}) {
		t.Fatalf("unexpected drain %v", got)
	}
	if b.Len() != 0 {
		t.Errorf("expected empty buffer after drain, got %d", b.Len())
	}
	if got := b.Drain(); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil drain, got %v", got)
	}

	b.Append(4)
	if got := b.Drain(); !equal(got, []float32{4}) {
		t.Errorf("unexpected drain after reuse %v", got)
	}
	if b.Total() != 4 || b.Dropped() != 0 {
		t.Errorf("expected total 4 dropped 0, got %d/%d", b.Total(), b.Dropped())
	}
}

func TestDrainDoesNotAliasLaterAppends(t *testing.T) {
	b := New(0)
	b.Append(1, 2)
	first := b.Drain()
	b.Append(9, 9)
	if !equal(first, []float32{1, 2}) {
		t.Errorf("drained slice changed after later append: %v", first)
	}
}

func TestRingEvictsOldest(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		appends  [][]float32
		want     []float32
		dropped  uint64
	}{
		{
			name:     "fits",
			capacity: 4,
			appends:  [][]float32{{1, 2}, {3}},
			want:     []float32{1, 2, 3},
		},
		{
			name:     "wraps",
			capacity: 4,
			appends:  [][]float32{{1, 2, 3}, {4, 5, 6}},
			want:     []float32{3, 4, 5, 6},
			dropped:  2,
		},
		{
			name:     "block larger than capacity",
			capacity: 3,
			appends:  [][]float32{{1}, {2, 3, 4, 5, 6}},
			want:     []float32{4, 5, 6},
			dropped:  3,
		},
		{
			name:     "many small blocks",
			capacity: 3,
			appends:  [][]float32{{1}, {2}, {3}, {4}, {5}},
			want:     []float32{3, 4, 5},
			dropped:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.capacity)
			for _, a := range tt.appends {
				b.Append(a...)
			}
			if got := b.Snapshot(); !equal(got, tt.want) {
				t.Errorf("snapshot: expected %v, got %v", tt.want, got)
			}
			if b.Dropped() != tt.dropped {
				t.Errorf("expected %d dropped, got %d", tt.dropped, b.Dropped())
			}
			if got := b.Drain(); !equal(got, tt.want) {
				t.Errorf("drain: expected %v, got %v", tt.want, got)
			}
			if b.Len() != 0 {
				t.Errorf("expected empty after drain, got %d", b.Len())
			}
		})
	}
}

func TestRingReuseAfterDrain(t *testing.T) {
	b := New(3)
	b.Append(1, 2)
	b.Drain()
	b.Append(3, 4, 5)
	if got := b.Drain(); !equal(got, []float32{3, 4, 5}) {
		t.Errorf("unexpected drain %v", got)
	}
}

func TestReset(t *testing.T) {
	b := New(2)
	b.Append(1, 2, 3)
	b.Reset()
	if b.Len() != 0 || b.Total() != 0 || b.Dropped() != 0 {
		t.Errorf("expected zeroed buffer, got len=%d total=%d dropped=%d", b.Len(), b.Total(), b.Dropped())
	}
}

// Overlapping appends must land as whole blocks: each block carries its
// writer's ID in every sample, so any interleaving shows up as a block
// whose samples disagree.
func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	const (
		writers   = 8
		perWriter = 200
		blockSize = 64
	)
	b := New(0)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(id float32) {
			defer wg.Done()
			block := make([]float32, blockSize)
			for i := range block {
				block[i] = id
			}
			for i := 0; i < perWriter; i++ {
				b.Append(block...)
			}
		}(float32(w))
	}

	// A concurrent drainer exercises the same exclusion.
	drained := make(chan []float32)
	stop := make(chan struct{})
	go func() {
		var all []float32
		for {
			select {
			case <-stop:
				drained <- append(all, b.Drain()...)
				return
			default:
				all = append(all, b.Drain()...)
			}
		}
	}()

	wg.Wait()
	close(stop)
	all := <-drained

	if len(all) != writers*perWriter*blockSize {
		t.Fatalf("expected %d samples, got %d", writers*perWriter*blockSize, len(all))
	}
	counts := make(map[float32]int)
	for i := 0; i < len(all); i += blockSize {
		id := all[i]
		for j := i; j < i+blockSize; j++ {
			if all[j] != id {
				t.Fatalf("block at %d interleaved: found %f in block of %f", i, all[j], id)
			}
		}
		counts[id]++
	}
	for w := 0; w < writers; w++ {
		if counts[float32(w)] != perWriter {
			t.Errorf("writer %d: expected %d blocks, got %d", w, perWriter, counts[float32(w)])
		}
	}
}
