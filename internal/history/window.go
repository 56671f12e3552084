package history

import (
	"sync"

	"rockwatch/internal/model"
)

const DefaultSize = 20

// Window keeps the most recent entries in insertion order, oldest first.
// Once full, each Add evicts the oldest entry.
type Window struct {
	mu      sync.RWMutex
	entries []model.HistoryEntry
	size    int
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{size: size, entries: make([]model.HistoryEntry, 0, size)}
}

func (w *Window) Add(entry model.HistoryEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) < w.size {
		w.entries = append(w.entries, entry)
		return
	}
	copy(w.entries, w.entries[1:])
	w.entries[len(w.entries)-1] = entry
}

// Entries returns a copy of the window, oldest first.
func (w *Window) Entries() []model.HistoryEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]model.HistoryEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Last returns up to n most recent entries, oldest first.
func (w *Window) Last(n int) []model.HistoryEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n <= 0 || n > len(w.entries) {
		n = len(w.entries)
	}
	out := make([]model.HistoryEntry, n)
	copy(out, w.entries[len(w.entries)-n:])
	return out
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}

func (w *Window) Size() int {
	return w.size
}

func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = w.entries[:0]
}
