package service

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mentalist/internal/model"
)

const noteNameLen = 32

// AttachNote pins a text note to the task. The note is stored as a plain-text data URI
// and named after its first words.
func (s *TaskService) AttachNote(taskID, text string) (model.Attachment, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Attachment{}, false
	}
	name := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(name) > noteNameLen {
		name = string([]rune(name)[:noteNameLen-1]) + "…"
	}
	return s.AddAttachment(taskID, model.AttachmentNote, name, "data:text/plain;charset=utf-8,"+url.PathEscape(text))
}

// AttachFile pins file content to the task as a data URI. Images are typed as images,
// everything else as a document.
func (s *TaskService) AttachFile(taskID, name string, data []byte) (model.Attachment, bool) {
	mime := http.DetectContentType(data)
	kind := model.AttachmentPDF
	if strings.HasPrefix(mime, "image/") {
		kind = model.AttachmentImage
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return s.AddAttachment(taskID, kind, filepath.Base(name), uri)
}

// NoteText returns the text of a note attachment, or "" for other kinds.
func NoteText(att model.Attachment) string {
	if att.Type != model.AttachmentNote {
		return ""
	}
	_, raw, ok := strings.Cut(att.URL, ",")
	if !ok {
		return ""
	}
	text, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return text
}

// RemoveAttachment drops the attachment with attachmentID from the task.
func (s *TaskService) RemoveAttachment(taskID, attachmentID string) bool {
	s.mu.Lock()
	task := findTask(s.tasks, taskID)
	removed := false
	if task != nil {
		n := len(task.Attachments)
		task.Attachments = removeAttachment(task.Attachments, attachmentID)
		removed = len(task.Attachments) != n
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return removed
}

func removeAttachment(items []model.Attachment, id string) []model.Attachment {
	out := items[:0:0]
	for _, att := range items {
		if att.ID != id {
			out = append(out, att)
		}
	}
	return out
}
