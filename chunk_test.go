package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, items []T, size int) [][]T {
	seq, err := Chunks(items, size)
	require.NoError(t, err)

	var out [][]T
	for chunk := range seq {
		out = append(out, chunk)
	}
	return out
}

func Test_Chunks(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, collect(t, []int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, collect(t, []int{1, 2, 3}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}}, collect(t, []int{1, 2, 3}, 10))
	assert.Empty(t, collect(t, []int{}, 2))
}

func Test_ChunksInvalidSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		seq, err := Chunks([]int{1}, size)
		assert.Nil(t, seq)
		assert.ErrorIs(t, err, ErrInvalidChunkSize)
	}
}

func Test_ChunksCopiesAndRestarts(t *testing.T) {
	src := []string{"a", "b", "c"}
	seq, err := Chunks(src, 2)
	require.NoError(t, err)

	for chunk := range seq {
		chunk[0] = "z"
	}
	assert.Equal(t, []string{"a", "b", "c"}, src)

	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
}

func Test_ChunksEarlyBreak(t *testing.T) {
	seq, err := Chunks([]int{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)

	var seen [][]int
	for chunk := range seq {
		seen = append(seen, chunk)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, seen)
}

func Test_ChunkCount(t *testing.T) {
	assert.Equal(t, 0, ChunkCount(0, 3))
	assert.Equal(t, 1, ChunkCount(3, 3))
	assert.Equal(t, 2, ChunkCount(4, 3))
	assert.Equal(t, 0, ChunkCount(4, 0))
}
