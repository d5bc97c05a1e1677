package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownSource = errors.New("unknown source")

type SourceStats struct {
	Name     string `json:"name"`
	Lines    int    `json:"lines"`
	Capacity int    `json:"capacity"`
	Pushed   uint64 `json:"pushed"`
}

type history struct {
	mu          sync.Mutex
	lines       *RingBuffer[string]
	subscribers map[int]chan string
	nextID      int
}

// HistoryStore keeps the recent lines of each source in its own ring
// buffer. All buffer access goes through the per-source mutex.
type HistoryStore struct {
	mu       sync.RWMutex
	capacity int
	sources  map[string]*history
}

func NewHistoryStore(capacity int) (*HistoryStore, error) {
	// Fail early with the same error a buffer would give.
	if _, err := NewRingBuffer[string](capacity); err != nil {
		return nil, err
	}
	return &HistoryStore{
		capacity: capacity,
		sources:  make(map[string]*history),
	}, nil
}

// Register adds a source and reports whether it was new.
func (s *HistoryStore) Register(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources[name]; ok {
		return false, nil
	}

	lines, err := NewRingBuffer[string](s.capacity)
	if err != nil {
		return false, err
	}
	s.sources[name] = &history{
		lines:       lines,
		subscribers: make(map[int]chan string),
	}
	return true, nil
}

func (s *HistoryStore) get(name string) (*history, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return h, nil
}

// Append records a line and hands it to live subscribers. Subscribers that
// are not keeping up miss the line instead of blocking the writer.
func (s *HistoryStore) Append(name, line string) error {
	h, err := s.get(name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lines.Push(line)
	for _, ch := range h.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
	return nil
}

func (s *HistoryStore) Snapshot(name string) ([]string, error) {
	h, err := s.get(name)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lines.Snapshot(), nil
}

// Subscribe returns the current snapshot together with a channel of lines
// appended after it, so no line falls between the two. The returned func
// unsubscribes and closes the channel.
func (s *HistoryStore) Subscribe(name string, buffer int) ([]string, <-chan string, func(), error) {
	h, err := s.get(name)
	if err != nil {
		return nil, nil, nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan string, buffer)
	h.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers, id)
			close(ch)
		})
	}
	return h.lines.Snapshot(), ch, cancel, nil
}

func (s *HistoryStore) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *HistoryStore) Stats() []SourceStats {
	stats := make([]SourceStats, 0)
	for _, name := range s.Sources() {
		h, err := s.get(name)
		if err != nil {
			continue
		}
		h.mu.Lock()
		stats = append(stats, SourceStats{
			Name:     name,
			Lines:    h.lines.Len(),
			Capacity: h.lines.Cap(),
			Pushed:   h.lines.Pushed(),
		})
		h.mu.Unlock()
	}
	return stats
}
