package main

import (
	"errors"
	"fmt"
)

var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// RingBuffer keeps the most recent Cap() items pushed into it. Once full,
// every Push overwrites the oldest item in place.
//
// It is not safe for concurrent use; see HistoryStore for a locked wrapper.
type RingBuffer[T any] struct {
	data []T
	head uint64 // total pushes, modulo len(data) is the next write slot
	size int
}

func NewRingBuffer[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &RingBuffer[T]{
		data: make([]T, capacity),
	}, nil
}

func (rb *RingBuffer[T]) Push(item T) {
	rb.data[rb.head%uint64(len(rb.data))] = item
	rb.head++
	if rb.size < len(rb.data) {
		rb.size++
	}
}

// Snapshot returns the retained items oldest first. The returned slice is a
// copy and is unaffected by later pushes.
func (rb *RingBuffer[T]) Snapshot() []T {
	out := make([]T, 0, rb.size)
	if rb.size < len(rb.data) {
		// Never wrapped: head points at an empty slot, not the oldest item.
		return append(out, rb.data[:rb.size]...)
	}
	start := int(rb.head % uint64(len(rb.data)))
	out = append(out, rb.data[start:]...)
	return append(out, rb.data[:start]...)
}

func (rb *RingBuffer[T]) Len() int { return rb.size }

func (rb *RingBuffer[T]) Cap() int { return len(rb.data) }

// Pushed is the number of items ever pushed, including evicted ones.
func (rb *RingBuffer[T]) Pushed() uint64 { return rb.head }
