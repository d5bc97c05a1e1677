package main

import (
	"errors"
	"fmt"
	"iter"
)

var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Chunks yields consecutive copies of at most size items from items. The
// last chunk may be shorter. Call it again to start over.
func Chunks[T any](items []T, size int) (iter.Seq[[]T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	return func(yield func([]T) bool) {
		for i := 0; i < len(items); i += size {
			end := min(i+size, len(items))
			chunk := make([]T, end-i)
			copy(chunk, items[i:end])
			if !yield(chunk) {
				return
			}
		}
	}, nil
}

// ChunkCount is the number of chunks Chunks would yield.
func ChunkCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
