package service

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mentalist/internal/model"
)

const (
	searchLimit          = 8
	recurringThreshold   = 3
	recurringLimit       = 5
	recurringPrefix      = "🔄 "
	placeholderSubtask   = "New Subtask"
	minRecurringTitleLen = 3
	minPrefixLen         = 4
)

// SearchResult is one search hit annotated with the list it lives in.
type SearchResult struct {
	Task         model.Task
	CategoryName string
	CategoryIcon string
}

// TaskService owns the task tree. Top-level order is most-recent-first; subtasks keep
// insertion order. Lookups by id recurse through every nesting level.
type TaskService struct {
	mu        sync.RWMutex
	tasks     []model.Task
	selected  string
	listeners []func()
	clock     Clock
	newID     func() string
}

func NewTaskService(clock Clock) *TaskService {
	if clock == nil {
		clock = RealClock{}
	}
	return &TaskService{clock: clock, newID: uuid.NewString}
}

// Subscribe registers fn to run after every mutation. The returned func removes it.
func (s *TaskService) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

func (s *TaskService) notify() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		if fn != nil {
			fn()
		}
	}
}

func (s *TaskService) newTask(title string, categoryIDs []string) model.Task {
	return model.Task{
		ID:          s.newID(),
		Title:       title,
		SubTasks:    []model.Task{},
		Attachments: []model.Attachment{},
		SharedWith:  []model.SharedUser{},
		CreatedAt:   epochMillis(s.clock.Now()),
		Priority:    model.PriorityMedium,
		CategoryIDs: categoryIDs,
	}
}

// Create adds a task at the head of the list and selects it.
func (s *TaskService) Create(title, categoryID, scheduledDate string) model.Task {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.PlaceholderTitle
	}
	if categoryID == "" {
		categoryID = model.CategoryDaily
	}
	task := s.newTask(title, []string{categoryID})
	task.ScheduledDate = strings.TrimSpace(scheduledDate)

	s.mu.Lock()
	s.tasks = slices.Insert(s.tasks, 0, task)
	s.selected = task.ID
	s.mu.Unlock()

	s.notify()
	return task.Clone()
}

// CreateShared adds a task received from another user to the shared list.
func (s *TaskService) CreateShared(title string, from model.SharedUser) model.Task {
	task := s.newTask(title, []string{model.CategoryShared})
	by := from
	task.SharedBy = &by

	s.mu.Lock()
	s.tasks = slices.Insert(s.tasks, 0, task)
	s.mu.Unlock()

	s.notify()
	return task.Clone()
}

// AddSubtask appends a child to the task with parentID at any depth.
// The child inherits the parent's lists.
func (s *TaskService) AddSubtask(parentID, title string) (model.Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = placeholderSubtask
	}

	s.mu.Lock()
	parent := findTask(s.tasks, parentID)
	if parent == nil {
		s.mu.Unlock()
		return model.Task{}, false
	}
	var categories []string
	if parent.CategoryIDs != nil {
		categories = slices.Clone(parent.CategoryIDs)
	} else {
		categories = []string{model.CategoryDaily}
	}
	child := s.newTask(title, categories)
	parent.SubTasks = append(parent.SubTasks, child)
	s.mu.Unlock()

	s.notify()
	return child.Clone(), true
}

// Update merges patch into the task with id wherever it sits in the tree.
// Unknown ids are ignored.
func (s *TaskService) Update(id string, patch model.TaskPatch) bool {
	s.mu.Lock()
	task := findTask(s.tasks, id)
	if task != nil {
		task.Apply(patch)
	}
	s.mu.Unlock()

	if task == nil {
		return false
	}
	if !patch.IsEmpty() {
		s.notify()
	}
	return true
}

// Delete removes the task with id and its whole subtree. Unknown ids are ignored.
func (s *TaskService) Delete(id string) bool {
	s.mu.Lock()
	var removed bool
	s.tasks, removed = deleteTask(s.tasks, id)
	if removed && s.selected != "" && (s.selected == id || findTask(s.tasks, s.selected) == nil) {
		s.selected = ""
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return removed
}

// ClearAll removes every task.
func (s *TaskService) ClearAll() {
	s.mu.Lock()
	s.tasks = nil
	s.selected = ""
	s.mu.Unlock()
	s.notify()
}

// Find returns a copy of the first task with id in depth-first order.
func (s *TaskService) Find(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task := findTask(s.tasks, id)
	if task == nil {
		return model.Task{}, false
	}
	return task.Clone(), true
}

// Resolve finds a task by full id or by an unambiguous id prefix of at least
// minPrefixLen characters.
func (s *TaskService) Resolve(ref string) (model.Task, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := findTask(s.tasks, ref); t != nil {
		return t.Clone(), true
	}
	if len(ref) < minPrefixLen {
		return model.Task{}, false
	}

	var match *model.Task
	var walk func(items []model.Task) bool
	walk = func(items []model.Task) bool {
		for i := range items {
			if strings.HasPrefix(items[i].ID, ref) {
				if match != nil {
					return false
				}
				match = &items[i]
			}
			if !walk(items[i].SubTasks) {
				return false
			}
		}
		return true
	}
	if !walk(s.tasks) || match == nil {
		return model.Task{}, false
	}
	return match.Clone(), true
}

func (s *TaskService) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && findTask(s.tasks, id) == nil {
		return false
	}
	s.selected = id
	return true
}

// Selected returns the task open for detail editing, if any.
func (s *TaskService) Selected() (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return model.Task{}, false
	}
	task := findTask(s.tasks, s.selected)
	if task == nil {
		return model.Task{}, false
	}
	return task.Clone(), true
}

// Snapshot returns a deep copy of the whole forest.
func (s *TaskService) Snapshot() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneTasks(s.tasks)
}

// Replace swaps in a loaded forest without notifying subscribers.
func (s *TaskService) Replace(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = model.CloneTasks(tasks)
	s.selected = ""
}

// FilterByCategory lists the visible top-level tasks of a category. Private tasks are
// left out.
func (s *TaskService) FilterByCategory(categoryID string) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return visibleIn(s.tasks, categoryID)
}

func visibleIn(tasks []model.Task, categoryID string) []model.Task {
	var out []model.Task
	for i := range tasks {
		if tasks[i].IsPrivate || !tasks[i].InCategory(categoryID) {
			continue
		}
		out = append(out, tasks[i].Clone())
	}
	return out
}

// Hidden lists the private top-level tasks.
func (s *TaskService) Hidden() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.IsPrivate {
			out = append(out, t.Clone())
		}
	}
	return out
}

// CountByCategory counts top-level tasks of a category, private ones included.
func (s *TaskService) CountByCategory(categoryID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for i := range s.tasks {
		if s.tasks[i].InCategory(categoryID) {
			n++
		}
	}
	return n
}

// AllCompleted is true when the category has visible tasks and all of them are done.
func (s *TaskService) AllCompleted(categoryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allCompleted(visibleIn(s.tasks, categoryID))
}

func allCompleted(tasks []model.Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.IsCompleted {
			return false
		}
	}
	return true
}

// Search matches top-level titles and their direct subtasks, case-insensitively.
// Each hit carries the first list, in registry order, its top-level task belongs to.
func (s *TaskService) Search(query string, categories []model.Category) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	add := func(task model.Task, owner *model.Task) {
		res := SearchResult{Task: task.Clone()}
		if cat, ok := firstCategory(owner, categories); ok {
			res.CategoryName = cat.Name
			res.CategoryIcon = cat.Icon
		}
		results = append(results, res)
	}
	for i := range s.tasks {
		top := &s.tasks[i]
		if strings.Contains(strings.ToLower(top.Title), q) {
			add(*top, top)
		}
		for _, sub := range top.SubTasks {
			if strings.Contains(strings.ToLower(sub.Title), q) {
				add(sub, top)
			}
		}
		if len(results) >= searchLimit {
			break
		}
	}
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	return results
}

func firstCategory(task *model.Task, categories []model.Category) (model.Category, bool) {
	if len(categories) == 0 {
		return model.Category{}, false
	}
	for _, c := range categories {
		if task.InCategory(c.ID) {
			return c, true
		}
	}
	return categories[0], true
}

// RecurringSuggestions surfaces titles used more than three times anywhere in the tree,
// most frequent first, for quick-add.
func (s *TaskService) RecurringSuggestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var order []string
	var walk func(items []model.Task)
	walk = func(items []model.Task) {
		for _, t := range items {
			title := strings.TrimSpace(t.Title)
			if title != "" && title != model.PlaceholderTitle && len([]rune(title)) >= minRecurringTitleLen {
				if counts[title] == 0 {
					order = append(order, title)
				}
				counts[title]++
			}
			walk(t.SubTasks)
		}
	}
	walk(s.tasks)

	var frequent []string
	for _, title := range order {
		if counts[title] > recurringThreshold {
			frequent = append(frequent, title)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return counts[frequent[i]] > counts[frequent[j]]
	})
	if len(frequent) > recurringLimit {
		frequent = frequent[:recurringLimit]
	}

	out := make([]string, 0, len(frequent))
	for _, title := range frequent {
		out = append(out, recurringPrefix+title)
	}
	return out
}

// CarryForward moves incomplete tasks due yesterday onto today, at any depth.
func (s *TaskService) CarryForward(today, yesterday string) int {
	s.mu.Lock()
	var moved int
	var walk func(items []model.Task)
	walk = func(items []model.Task) {
		for i := range items {
			if items[i].DueDate == yesterday && !items[i].IsCompleted {
				items[i].DueDate = today
				moved++
			}
			walk(items[i].SubTasks)
		}
	}
	walk(s.tasks)
	s.mu.Unlock()

	if moved > 0 {
		s.notify()
	}
	return moved
}

// RemoveCategory drops categoryID from every task that lists it. A task left with no
// lists is moved to fallback.
func (s *TaskService) RemoveCategory(categoryID, fallback string) int {
	s.mu.Lock()
	var changed int
	var walk func(items []model.Task)
	walk = func(items []model.Task) {
		for i := range items {
			t := &items[i]
			if t.CategoryIDs != nil && slices.Contains(t.CategoryIDs, categoryID) {
				kept := slices.DeleteFunc(slices.Clone(t.CategoryIDs), func(id string) bool { return id == categoryID })
				if len(kept) == 0 {
					kept = []string{fallback}
				}
				t.CategoryIDs = kept
				changed++
			}
			walk(t.SubTasks)
		}
	}
	walk(s.tasks)
	s.mu.Unlock()

	if changed > 0 {
		s.notify()
	}
	return changed
}

// findTask returns a pointer into items; callers must hold the lock.
func findTask(items []model.Task, id string) *model.Task {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
		if found := findTask(items[i].SubTasks, id); found != nil {
			return found
		}
	}
	return nil
}

func deleteTask(items []model.Task, id string) ([]model.Task, bool) {
	for i := range items {
		if items[i].ID == id {
			return slices.Delete(items, i, i+1), true
		}
		if sub, ok := deleteTask(items[i].SubTasks, id); ok {
			items[i].SubTasks = sub
			return items, true
		}
	}
	return items, false
}

// AddAttachment pins a file or note to the task with taskID.
func (s *TaskService) AddAttachment(taskID string, kind model.AttachmentType, name, url string) (model.Attachment, bool) {
	s.mu.Lock()
	task := findTask(s.tasks, taskID)
	if task == nil {
		s.mu.Unlock()
		return model.Attachment{}, false
	}
	att := model.Attachment{
		ID:        s.newID(),
		Type:      kind,
		Name:      name,
		URL:       url,
		CreatedAt: epochMillis(s.clock.Now()),
	}
	task.Attachments = append(task.Attachments, att)
	s.mu.Unlock()

	s.notify()
	return att, true
}

// ToggleShare adds user to the task's share set, or removes them if already present.
// It reports whether the user is shared with afterwards.
func (s *TaskService) ToggleShare(taskID string, user model.SharedUser) (bool, bool) {
	s.mu.Lock()
	task := findTask(s.tasks, taskID)
	if task == nil {
		s.mu.Unlock()
		return false, false
	}
	idx := slices.IndexFunc(task.SharedWith, func(u model.SharedUser) bool { return u.ID == user.ID })
	shared := idx < 0
	if shared {
		task.SharedWith = append(task.SharedWith, user)
	} else {
		task.SharedWith = slices.Delete(slices.Clone(task.SharedWith), idx, idx+1)
	}
	s.mu.Unlock()

	s.notify()
	return shared, true
}
