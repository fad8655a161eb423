package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorUniqueAndMonotonic(t *testing.T) {
	g := NewGenerator(7)
	seen := make(map[int64]struct{}, 10000)
	var last int64
	for i := 0; i < 10000; i++ {
		id := g.Next()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
		require.Greater(t, id, last)
		last = id
	}
	assert.Equal(t, int64(7), NodeOf(last))
}

func TestGeneratorSequenceOverflowWaitsForNextMillisecond(t *testing.T) {
	g := NewGenerator(1)
	ms := int64(1_700_000_000_000)
	calls := 0
	g.now = func() int64 {
		calls++
		// 前 4097 次都停在同一毫秒
		if calls <= 4097 {
			return ms
		}
		return ms + 1
	}
	seen := make(map[int64]struct{})
	for i := 0; i < 4097; i++ {
		id := g.Next()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestNodeIDOutOfRangeFallsBack(t *testing.T) {
	g := NewGenerator(5000)
	assert.Equal(t, int64(1), NodeOf(g.Next()))
}
