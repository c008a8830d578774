package model

import "strings"

// DateLayout and TimeLayout are the string formats used for due dates and reminder times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PlaceholderTitle is the title given to tasks created without one.
const PlaceholderTitle = "New Task"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentNote  AttachmentType = "note"
)

// Attachment is a file or note pinned to a task. URL holds a data URI or an external reference.
type Attachment struct {
	ID        string         `json:"id"`
	Type      AttachmentType `json:"type"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	CreatedAt int64          `json:"createdAt"`
}

// Task represents a single to-do item. Tasks nest through SubTasks without a depth limit.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	IsCompleted   bool         `json:"isCompleted"`
	Notes         string       `json:"notes"`
	SubTasks      []Task       `json:"subTasks"`
	Attachments   []Attachment `json:"attachments"`
	DueDate       string       `json:"dueDate,omitempty"`
	ReminderTime  string       `json:"reminderTime,omitempty"`
	ScheduledDate string       `json:"scheduledDate,omitempty"`
	SharedWith    []SharedUser `json:"sharedWith"`
	SharedBy      *SharedUser  `json:"sharedBy,omitempty"`
	CreatedAt     int64        `json:"createdAt"`
	Priority      Priority     `json:"priority"`
	IsPrivate     bool         `json:"isPrivate,omitempty"`
	CategoryIDs   []string     `json:"categoryIds,omitempty"`
}

// InCategory reports whether the task is listed under the category.
// Tasks saved before categories existed have no ids and belong to the daily list.
func (t *Task) InCategory(categoryID string) bool {
	if t.CategoryIDs == nil {
		return categoryID == CategoryDaily
	}
	for _, id := range t.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// HasReminder reports whether both halves of the reminder instant are set.
func (t *Task) HasReminder() bool {
	return t.DueDate != "" && t.ReminderTime != ""
}

// Clone returns a deep copy of the task and all of its descendants.
func (t Task) Clone() Task {
	out := t
	if t.SubTasks != nil {
		out.SubTasks = make([]Task, len(t.SubTasks))
		for i, sub := range t.SubTasks {
			out.SubTasks[i] = sub.Clone()
		}
	}
	if t.Attachments != nil {
		out.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	if t.SharedWith != nil {
		out.SharedWith = append([]SharedUser(nil), t.SharedWith...)
	}
	if t.SharedBy != nil {
		by := *t.SharedBy
		out.SharedBy = &by
	}
	if t.CategoryIDs != nil {
		out.CategoryIDs = append([]string(nil), t.CategoryIDs...)
	}
	return out
}

// CloneTasks deep-copies a forest.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// TaskPatch is a partial update. Nil fields are left untouched; an empty string on a
// date or time field clears it.
type TaskPatch struct {
	Title         *string
	IsCompleted   *bool
	Notes         *string
	SubTasks      *[]Task
	Attachments   *[]Attachment
	DueDate       *string
	ReminderTime  *string
	ScheduledDate *string
	SharedWith    *[]SharedUser
	SharedBy      *SharedUser
	Priority      *Priority
	IsPrivate     *bool
	CategoryIDs   *[]string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p == TaskPatch{}
}

// Apply merges the patch into the task. Slices are copied so the caller keeps no alias
// into the tree.
func (t *Task) Apply(p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.SubTasks != nil {
		t.SubTasks = CloneTasks(*p.SubTasks)
	}
	if p.Attachments != nil {
		t.Attachments = append([]Attachment(nil), (*p.Attachments)...)
	}
	if p.DueDate != nil {
		t.DueDate = strings.TrimSpace(*p.DueDate)
	}
	if p.ReminderTime != nil {
		t.ReminderTime = strings.TrimSpace(*p.ReminderTime)
	}
	if p.ScheduledDate != nil {
		t.ScheduledDate = strings.TrimSpace(*p.ScheduledDate)
	}
	if p.SharedWith != nil {
		t.SharedWith = append([]SharedUser(nil), (*p.SharedWith)...)
	}
	if p.SharedBy != nil {
		by := *p.SharedBy
		t.SharedBy = &by
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.IsPrivate != nil {
		t.IsPrivate = *p.IsPrivate
	}
	if p.CategoryIDs != nil {
		t.CategoryIDs = append([]string(nil), (*p.CategoryIDs)...)
	}
}
