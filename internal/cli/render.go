package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

const shortIDLen = 8

type styles struct {
	title   lipgloss.Style
	accent  lipgloss.Style
	muted   lipgloss.Style
	done    lipgloss.Style
	overdue lipgloss.Style
	quote   lipgloss.Style
}

// newStyles builds a palette from the active theme. The renderer is bound to w so
// colors are dropped when w is not a terminal.
func newStyles(w io.Writer, theme model.Theme) styles {
	r := lipgloss.NewRenderer(w)
	accent := lipgloss.Color("#6366f1")
	if len(theme.Palette.Colors) > 0 {
		accent = lipgloss.Color(theme.Palette.Colors[0])
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(accent),
		accent:  r.NewStyle().Foreground(accent),
		muted:   r.NewStyle().Faint(true),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		overdue: r.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		quote:   r.NewStyle().Italic(true).PaddingLeft(2),
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func renderTask(st styles, task model.Task, today string, depth int) string {
	box := "[ ]"
	title := task.Title
	switch {
	case task.IsCompleted:
		box = "[x]"
		title = st.done.Render(title)
	case task.DueDate != "" && task.DueDate < today:
		title = st.overdue.Render(title)
	}

	var badges []string
	if task.Priority == model.PriorityHigh {
		badges = append(badges, "!")
	}
	if n := len(task.SubTasks); n > 0 {
		done := 0
		for _, sub := range task.SubTasks {
			if sub.IsCompleted {
				done++
			}
		}
		badges = append(badges, fmt.Sprintf("%d/%d", done, n))
	}
	if task.DueDate != "" {
		badges = append(badges, "due "+task.DueDate)
	}
	if task.ReminderTime != "" {
		badges = append(badges, "at "+task.ReminderTime)
	}
	if task.IsPrivate {
		badges = append(badges, "private")
	}
	if task.SharedBy != nil {
		badges = append(badges, "from "+task.SharedBy.Name)
	}
	if n := len(task.SharedWith); n > 0 {
		badges = append(badges, fmt.Sprintf("shared with %d", n))
	}
	if n := len(task.Attachments); n > 0 {
		badges = append(badges, fmt.Sprintf("%d attached", n))
	}

	line := fmt.Sprintf("%s%s %s %s", strings.Repeat("  ", depth), box, st.muted.Render(shortID(task.ID)), title)
	if len(badges) > 0 {
		line += " " + st.muted.Render("("+strings.Join(badges, ", ")+")")
	}
	return line
}

func renderTaskTree(st styles, tasks []model.Task, today string, depth int) []string {
	var lines []string
	for _, task := range tasks {
		lines = append(lines, renderTask(st, task, today, depth))
		lines = append(lines, renderTaskTree(st, task.SubTasks, today, depth+1)...)
	}
	return lines
}

func renderList(st styles, cat model.Category, tasks []model.Task, today string) string {
	done := 0
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}
	header := st.title.Render(fmt.Sprintf("%s %s", cat.Icon, cat.Name)) + " " + st.muted.Render(fmt.Sprintf("%d/%d", done, len(tasks)))
	if len(tasks) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, st.muted.Render("  nothing here yet"))
	}
	if cat.ID != model.CategoryDaily {
		return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, renderTaskTree(st, tasks, today, 1)...)...)
	}

	unscheduled, groups := service.SplitScheduled(tasks)
	lines := append([]string{header}, renderTaskTree(st, unscheduled, today, 1)...)
	for _, g := range groups {
		lines = append(lines, "", st.title.Render("📅 "+service.HumanDate(g.Date)))
		lines = append(lines, renderTaskTree(st, g.Tasks, today, 1)...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAttachments(st styles, task model.Task) string {
	header := st.title.Render("📎 " + task.Title)
	if len(task.Attachments) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, st.muted.Render("  nothing attached"))
	}
	lines := []string{header}
	for _, att := range task.Attachments {
		line := fmt.Sprintf("  %s %s", st.muted.Render(shortID(att.ID)), att.Name)
		if text := service.NoteText(att); text != "" {
			line += "\n    " + st.quote.Render(text)
		} else {
			line += " " + st.muted.Render("("+string(att.Type)+")")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCategories(st styles, cats []model.Category, active string, count func(string) int) string {
	lines := []string{st.title.Render("Lists")}
	for _, c := range cats {
		marker := " "
		if c.ID == active {
			marker = st.accent.Render("›")
		}
		line := fmt.Sprintf("%s %s %s %s", marker, c.Icon, c.Name, st.muted.Render(fmt.Sprintf("[%s] %d", c.ID, count(c.ID))))
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSearch(st styles, query string, results []service.SearchResult) string {
	if len(results) == 0 {
		return st.muted.Render(fmt.Sprintf("nothing matches %q", query))
	}
	lines := []string{st.title.Render(fmt.Sprintf("Results for %q", query))}
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("  %s %s %s %s", r.CategoryIcon, st.muted.Render(r.CategoryName), st.muted.Render(shortID(r.Task.ID)), r.Task.Title))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSuggestions(st styles, quote string, suggestions []string) string {
	lines := []string{st.quote.Render("💬 " + quote), "", st.title.Render("Quick add")}
	for _, s := range suggestions {
		lines = append(lines, "  • "+s)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderInbox(st styles, pending []model.CollaborationRequest, unread int) string {
	lines := []string{st.title.Render("Inbox") + " " + st.muted.Render(fmt.Sprintf("%d unread notification(s)", unread))}
	if len(pending) == 0 {
		lines = append(lines, st.muted.Render("  No pending invites."))
	}
	for _, req := range pending {
		kind := "wants to collaborate on"
		if req.Type == model.RequestInform {
			kind = "shared"
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s %q", st.muted.Render(shortID(req.ID)), req.FromUser.Name, kind, req.TaskTitle))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
