package service

import (
	"log"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mentalist/internal/model"
)

// categoryRemover rewrites task membership when a list disappears.
type categoryRemover interface {
	RemoveCategory(categoryID, fallback string) int
}

// CategoryService keeps the ordered lists shown in the sidebar and which one is active.
type CategoryService struct {
	mu         sync.RWMutex
	categories []model.Category
	active     string
	tasks      categoryRemover
	listeners  []func()
	pick       func(n int) int
	newID      func() string
}

func NewCategoryService(tasks categoryRemover) *CategoryService {
	return &CategoryService{
		categories: model.DefaultCategories(),
		active:     model.CategoryDaily,
		tasks:      tasks,
		pick:       rand.IntN,
		newID:      uuid.NewString,
	}
}

// Subscribe registers fn to run after every change to the list set or the active list.
func (s *CategoryService) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *CategoryService) notify() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *CategoryService) List() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

func (s *CategoryService) Get(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Category{}, false
	}
	return s.categories[idx], true
}

func (s *CategoryService) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive switches the active list. Unknown ids are ignored.
func (s *CategoryService) SetActive(id string) bool {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.active = id
	s.mu.Unlock()
	s.notify()
	return true
}

// Replace installs a loaded list set. An empty set keeps the defaults; protected
// lists missing from the loaded set are appended so their roles stay available.
func (s *CategoryService) Replace(categories []model.Category, active string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(categories) > 0 {
		s.categories = slices.Clone(categories)
	}
	for _, def := range model.DefaultCategories() {
		if model.IsProtected(def.ID) && s.indexOf(def.ID) < 0 {
			log.Printf("[warn] restoring missing protected list %q", def.ID)
			s.categories = append(s.categories, def)
		}
	}
	if active != "" && s.indexOf(active) >= 0 {
		s.active = active
	} else {
		s.active = model.CategoryDaily
	}
}

// Create appends a new list with a random icon and makes it active.
func (s *CategoryService) Create() model.Category {
	s.mu.Lock()
	cat := model.Category{
		ID:    s.newID(),
		Name:  model.NewCategoryName,
		Icon:  model.CategoryIcons[s.pick(len(model.CategoryIcons))],
		Color: model.NewCategoryColor,
	}
	s.categories = append(s.categories, cat)
	s.active = cat.ID
	s.mu.Unlock()

	s.notify()
	return cat
}

func (s *CategoryService) Rename(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return s.modify(id, func(c *model.Category) { c.Name = name })
}

func (s *CategoryService) SetIcon(id, icon string) bool {
	if icon == "" {
		return false
	}
	return s.modify(id, func(c *model.Category) { c.Icon = icon })
}

func (s *CategoryService) modify(id string, fn func(c *model.Category)) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.categories[idx])
	s.mu.Unlock()
	s.notify()
	return true
}

// Delete removes a list. Protected lists are never removed. Tasks that lose their last
// list move to the daily list, and an active deleted list hands over to daily too.
func (s *CategoryService) Delete(id string) bool {
	if model.IsProtected(id) {
		return false
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.categories = slices.Delete(s.categories, idx, idx+1)
	if s.active == id {
		s.active = model.CategoryDaily
	}
	s.mu.Unlock()

	if s.tasks != nil {
		moved := s.tasks.RemoveCategory(id, model.CategoryDaily)
		log.Printf("[info] list deleted id=%s tasks_rewritten=%d", id, moved)
	}
	s.notify()
	return true
}

// MoveUp swaps the list with its predecessor.
func (s *CategoryService) MoveUp(id string) bool {
	return s.swap(id, -1)
}

// MoveDown swaps the list with its successor.
func (s *CategoryService) MoveDown(id string) bool {
	return s.swap(id, 1)
}

func (s *CategoryService) swap(id string, delta int) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	other := idx + delta
	if idx < 0 || other < 0 || other >= len(s.categories) {
		s.mu.Unlock()
		return false
	}
	s.categories[idx], s.categories[other] = s.categories[other], s.categories[idx]
	s.mu.Unlock()
	s.notify()
	return true
}

// indexOf must be called with the lock held.
func (s *CategoryService) indexOf(id string) int {
	return slices.IndexFunc(s.categories, func(c model.Category) bool { return c.ID == id })
}
