package service

import (
	"context"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"mentalist/internal/model"
	"mentalist/internal/repository"
)

const (
	QuoteRotationWindow      = time.Hour
	SuggestionRotationWindow = 12 * time.Hour
	// RotationCheckInterval is how often the rotators are asked whether their window elapsed.
	RotationCheckInterval = time.Minute

	quickAddLimit = 5
)

// kvStore is the slice of the state repository the rotators need.
type kvStore interface {
	LoadString(ctx context.Context, key, fallback string) string
	Put(ctx context.Context, key, value string) error
}

// Rotator picks a pseudo-random index in [0, size) and keeps it until the window
// elapses. The index and the time it was picked survive restarts.
type Rotator struct {
	store    kvStore
	indexKey string
	stampKey string
	window   time.Duration
	size     int
	clock    Clock
	pick     func(n int) int

	mu     sync.Mutex
	loaded bool
	index  int
	stamp  int64
}

func NewRotator(store kvStore, indexKey, stampKey string, window time.Duration, size int, clock Clock) *Rotator {
	if clock == nil {
		clock = RealClock{}
	}
	if size < 1 {
		size = 1
	}
	return &Rotator{
		store:    store,
		indexKey: indexKey,
		stampKey: stampKey,
		window:   window,
		size:     size,
		clock:    clock,
		pick:     rand.IntN,
	}
}

// NewQuoteRotator rotates the header quote hourly.
func NewQuoteRotator(store kvStore, clock Clock) *Rotator {
	return NewRotator(store, repository.KeyQuoteIndex, repository.KeyQuoteUpdated, QuoteRotationWindow, len(model.MotivationalQuotes), clock)
}

// NewSuggestionRotator rotates the start of the quick-add suggestion window every 12 hours.
func NewSuggestionRotator(store kvStore, clock Clock) *Rotator {
	return NewRotator(store, repository.KeySuggestionsIndex, repository.KeySuggestionsUpdated, SuggestionRotationWindow,
		len(model.QuickAddSuggestions)-model.SuggestionSetSize, clock)
}

// Index returns the current index, rotating first if the window has elapsed.
func (r *Rotator) Index(ctx context.Context) int {
	idx, _ := r.Tick(ctx)
	return idx
}

// Tick rotates when there is no saved choice or the window has elapsed.
// It reports whether the index was re-picked.
func (r *Rotator) Tick(ctx context.Context) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		r.load(ctx)
	}
	now := epochMillis(r.clock.Now())
	if r.stamp != 0 && now-r.stamp < r.window.Milliseconds() {
		return r.index, false
	}

	r.index = r.pick(r.size)
	r.stamp = now
	if err := r.store.Put(ctx, r.indexKey, strconv.Itoa(r.index)); err != nil {
		log.Printf("[warn] save %s: %v", r.indexKey, err)
	}
	if err := r.store.Put(ctx, r.stampKey, strconv.FormatInt(r.stamp, 10)); err != nil {
		log.Printf("[warn] save %s: %v", r.stampKey, err)
	}
	return r.index, true
}

func (r *Rotator) load(ctx context.Context) {
	r.loaded = true
	idx, errIdx := strconv.Atoi(r.store.LoadString(ctx, r.indexKey, ""))
	stamp, errStamp := strconv.ParseInt(r.store.LoadString(ctx, r.stampKey, ""), 10, 64)
	if errIdx != nil || errStamp != nil || idx < 0 || idx >= r.size {
		return
	}
	r.index = idx
	r.stamp = stamp
}

// QuickAddSuggestions merges the user's recurring titles with a window of curated
// suggestions, dropping entries that differ only by emoji or punctuation.
func QuickAddSuggestions(recurring []string, rotationEnabled bool, index int) []string {
	rotated := model.CommonSuggestions
	if rotationEnabled {
		start := min(max(index, 0), len(model.QuickAddSuggestions))
		end := min(start+model.SuggestionSetSize, len(model.QuickAddSuggestions))
		rotated = model.QuickAddSuggestions[start:end]
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, quickAddLimit)
	for _, s := range append(append([]string(nil), recurring...), rotated...) {
		key := suggestionKey(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == quickAddLimit {
			break
		}
	}
	return out
}

// suggestionKey keeps ASCII letters, digits and spaces, lowercased and trimmed.
func suggestionKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return strings.TrimSpace(b.String())
}
