// Package history provides the bounded record of recently played URIs.
package history

import "sync"

// DefaultSize is the number of URIs kept when no size is configured.
const DefaultSize = 100

// History is a bounded FIFO of recently played URIs.
// Re-adding a URI moves it to the newest position.
type History struct {
	mu    sync.RWMutex
	size  int
	items []string
}

// New creates a history holding at most size URIs.
func New(size int) *History {
	if size <= 0 {
		size = DefaultSize
	}
	return &History{
		size:  size,
		items: make([]string, 0, size),
	}
}

// Add records uri as the newest entry, evicting the oldest when full.
func (h *History) Add(uri string) {
	if uri == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, item := range h.items {
		if item == uri {
			h.items = append(h.items[:i], h.items[i+1:]...)
			break
		}
	}
	if len(h.items) >= h.size {
		h.items = h.items[1:]
	}
	h.items = append(h.items, uri)
}

// Contains reports whether uri was recently played.
func (h *History) Contains(uri string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, item := range h.items {
		if item == uri {
			return true
		}
	}
	return false
}

// Len returns the number of recorded URIs.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Items returns a copy of the recorded URIs, oldest first.
func (h *History) Items() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]string, len(h.items))
	copy(result, h.items)
	return result
}

// Set returns the recorded URIs as a lookup set.
func (h *History) Set() map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[string]bool, len(h.items))
	for _, item := range h.items {
		result[item] = true
	}
	return result
}
