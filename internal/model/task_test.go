package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_CloneIsDeep(t *testing.T) {
	by := SharedUser{ID: "u1", Name: "Alex River"}
	orig := Task{
		ID:          "a",
		SubTasks:    []Task{{ID: "b", SubTasks: []Task{{ID: "c"}}}},
		Attachments: []Attachment{{ID: "att"}},
		SharedWith:  []SharedUser{by},
		SharedBy:    &by,
		CategoryIDs: []string{"work"},
	}

	cp := orig.Clone()
	cp.SubTasks[0].SubTasks[0].Title = "changed"
	cp.Attachments[0].Name = "changed"
	cp.SharedWith[0].Name = "changed"
	cp.SharedBy.Name = "changed"
	cp.CategoryIDs[0] = "changed"

	assert.Empty(t, orig.SubTasks[0].SubTasks[0].Title)
	assert.Empty(t, orig.Attachments[0].Name)
	assert.Equal(t, "Alex River", orig.SharedWith[0].Name)
	assert.Equal(t, "Alex River", orig.SharedBy.Name)
	assert.Equal(t, []string{"work"}, orig.CategoryIDs)
}

func TestTask_ApplyOnlyTouchesSetFields(t *testing.T) {
	task := Task{Title: "t", Notes: "n", DueDate: "2030-01-01", ReminderTime: "09:00", Priority: PriorityLow}

	title := "renamed"
	clear := ""
	high := PriorityHigh
	task.Apply(TaskPatch{Title: &title, ReminderTime: &clear, Priority: &high})

	assert.Equal(t, "renamed", task.Title)
	assert.Equal(t, "n", task.Notes)
	assert.Equal(t, "2030-01-01", task.DueDate)
	assert.Empty(t, task.ReminderTime)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.False(t, task.HasReminder())
}

func TestTask_ApplyCopiesSlices(t *testing.T) {
	ids := []string{"work"}
	var task Task
	task.Apply(TaskPatch{CategoryIDs: &ids})
	ids[0] = "changed"
	require.Len(t, task.CategoryIDs, 1)
	assert.Equal(t, "work", task.CategoryIDs[0])
}

func TestTask_InCategory(t *testing.T) {
	legacy := Task{}
	assert.True(t, legacy.InCategory(CategoryDaily))
	assert.False(t, legacy.InCategory("work"))

	tagged := Task{CategoryIDs: []string{"work", "personal"}}
	assert.True(t, tagged.InCategory("personal"))
	assert.False(t, tagged.InCategory(CategoryDaily))
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	done := false
	assert.False(t, TaskPatch{IsCompleted: &done}.IsEmpty())
}

func TestPriority_Valid(t *testing.T) {
	assert.True(t, PriorityMedium.Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.False(t, Priority("").Valid())
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected(CategoryDaily))
	assert.True(t, IsProtected(CategoryShared))
	assert.False(t, IsProtected("work"))
}
