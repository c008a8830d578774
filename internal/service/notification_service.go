package service

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"mentalist/internal/model"
)

// NotificationService is the newest-first activity feed.
type NotificationService struct {
	mu          sync.RWMutex
	items       []model.Notification
	subscribers []func(model.Notification)
	changed     []func()
	clock       Clock
	newID       func() string
}

func NewNotificationService(clock Clock) *NotificationService {
	if clock == nil {
		clock = RealClock{}
	}
	return &NotificationService{clock: clock, newID: uuid.NewString}
}

// Subscribe registers fn to receive every appended notification.
func (s *NotificationService) Subscribe(fn func(model.Notification)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// OnChange registers fn to run after any change, including read-state flips.
func (s *NotificationService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, fn)
}

// Append stamps n with an id, creation time and unread state and puts it at the head.
func (s *NotificationService) Append(n model.Notification) model.Notification {
	n.ID = s.newID()
	n.CreatedAt = epochMillis(s.clock.Now())
	n.IsRead = false

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, n)
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(n)
	}
	s.notifyChanged()
	return n
}

func (s *NotificationService) MarkAllRead() {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.mu.Unlock()
	s.notifyChanged()
}

func (s *NotificationService) MarkRead(id string) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(n model.Notification) bool { return n.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items[idx].IsRead = true
	s.mu.Unlock()
	s.notifyChanged()
	return true
}

func (s *NotificationService) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (s *NotificationService) List() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Replace installs a loaded feed without notifying.
func (s *NotificationService) Replace(items []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
}

func (s *NotificationService) notifyChanged() {
	s.mu.RLock()
	changed := slices.Clone(s.changed)
	s.mu.RUnlock()
	for _, fn := range changed {
		fn()
	}
}
