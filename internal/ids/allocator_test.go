package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorStartValues(t *testing.T) {
	a := NewAllocator()

	assert.Equal(t, uint32(0), a.Next(KindUser))
	assert.Equal(t, uint32(1), a.Next(KindContest), "contest ids skip practice id 0")
	assert.Equal(t, uint32(0), a.Next(KindJob))
	assert.Equal(t, uint32(1), a.Next(KindJob))
	assert.Equal(t, uint32(2), a.Peek(KindJob))
	assert.Equal(t, uint32(1), a.Peek(KindUser), "kinds are independent")
}

func TestAllocatorConcurrentUnique(t *testing.T) {
	a := NewAllocator()

	const goroutines = 16
	const perGoroutine = 500

	results := make([][]uint32, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results[g] = append(results[g], a.Next(KindJob))
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[uint32]bool, goroutines*perGoroutine)
	for _, ids := range results {
		for i, id := range ids {
			require.False(t, seen[id], "id %d issued twice", id)
			seen[id] = true
			if i > 0 {
				assert.Greater(t, id, ids[i-1], "ids observed by one caller must increase")
			}
		}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, uint32(goroutines*perGoroutine), a.Peek(KindJob))
}

func TestAllocatorSeedNeverLowers(t *testing.T) {
	a := NewAllocator()

	a.Seed(KindUser, 10)
	assert.Equal(t, uint32(10), a.Next(KindUser))

	a.Seed(KindUser, 3)
	assert.Equal(t, uint32(11), a.Next(KindUser))
}
