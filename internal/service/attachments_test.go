package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentalist/internal/model"
)

func TestTaskService_AttachNote(t *testing.T) {
	svc := newTestTaskService()
	task := svc.Create("Trip", "personal", "")

	att, ok := svc.AttachNote(task.ID, "  Passport is in the   top drawer, next to the chargers  ")
	require.True(t, ok)
	assert.Equal(t, model.AttachmentNote, att.Type)
	assert.Equal(t, "Passport is in the top drawer, …", att.Name)
	assert.Equal(t, "Passport is in the   top drawer, next to the chargers", NoteText(att))

	_, ok = svc.AttachNote(task.ID, "   ")
	assert.False(t, ok)
	_, ok = svc.AttachNote("missing", "text")
	assert.False(t, ok)
}

func TestTaskService_AttachFileAndRemove(t *testing.T) {
	svc := newTestTaskService()
	task := svc.Create("Taxes", "work", "")

	png := []byte("\x89PNG\r\n\x1a\n0000")
	img, ok := svc.AttachFile(task.ID, "/tmp/receipt.png", png)
	require.True(t, ok)
	assert.Equal(t, model.AttachmentImage, img.Type)
	assert.Equal(t, "receipt.png", img.Name)
	assert.True(t, strings.HasPrefix(img.URL, "data:image/png;base64,"), img.URL)
	assert.Empty(t, NoteText(img))

	doc, ok := svc.AttachFile(task.ID, "form.pdf", []byte("%PDF-1.7"))
	require.True(t, ok)
	assert.Equal(t, model.AttachmentPDF, doc.Type)

	assert.True(t, svc.RemoveAttachment(task.ID, img.ID))
	assert.False(t, svc.RemoveAttachment(task.ID, img.ID))

	got, _ := svc.Find(task.ID)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, doc.ID, got.Attachments[0].ID)
}
