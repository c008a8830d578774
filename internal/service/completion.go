package service

import (
	"sync"

	"mentalist/internal/model"
)

// Celebrator plays the "list finished" effect.
type Celebrator interface {
	Celebrate(palette model.Palette)
}

type completionSource interface {
	AllCompleted(categoryID string) bool
}

// CompletionWatcher detects the moment a list becomes fully completed. It reports a list
// only on the transition, never while it stays complete.
type CompletionWatcher struct {
	mu     sync.Mutex
	source completionSource
	done   map[string]bool
}

func NewCompletionWatcher(source completionSource) *CompletionWatcher {
	return &CompletionWatcher{source: source, done: make(map[string]bool)}
}

// Prime records the current state without reporting anything. Call it after loading.
func (w *CompletionWatcher) Prime(categoryIDs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		w.done[id] = w.source.AllCompleted(id)
	}
}

// Check re-evaluates every list and returns those that just became complete.
// Lists seen for the first time are treated as previously incomplete.
func (w *CompletionWatcher) Check(categoryIDs []string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var finished []string
	next := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		now := w.source.AllCompleted(id)
		if now && !w.done[id] {
			finished = append(finished, id)
		}
		next[id] = now
	}
	w.done = next
	return finished
}
