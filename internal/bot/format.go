package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop input"
	iconDefault     = "🟢"
	iconDone        = "✅"
	iconDueToday    = "⏳"
	iconOverdue     = "⚠️"
	iconPrivate     = "🔒"
	menuLabelNew    = "➕ New task"
	menuLabelTasks  = "📋 Tasks"
	menuLabelLists  = "📂 Lists"
	menuLabelInbox  = "📥 Inbox"
	menuLabelHelp   = "ℹ️ Help"

	shortIDLen       = 8
	buttonTitleLen   = 24
	maxTaskButtons   = 20
	maxFeedEntries   = 10
	celebrationWidth = 5
)

var defaultCelebration = []string{"🎉", "🎊", "✨", "🥳", "🏆"}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// shortID is the prefix shown in chat; TaskService.Resolve accepts it back.
func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func categoryLabel(c model.Category) string {
	return fmt.Sprintf("%s %s", c.Icon, escape(strings.TrimSpace(c.Name)))
}

func subtaskProgress(task model.Task) (int, int) {
	done := 0
	for _, sub := range task.SubTasks {
		if sub.IsCompleted {
			done++
		}
	}
	return done, len(task.SubTasks)
}

func taskIcon(task model.Task, today string) string {
	switch {
	case task.IsCompleted:
		return iconDone
	case task.DueDate != "" && task.DueDate < today:
		return iconOverdue
	case task.DueDate == today:
		return iconDueToday
	case task.IsPrivate:
		return iconPrivate
	default:
		return iconDefault
	}
}

// formatTask renders one task line with its badges. Depth indents subtasks.
func formatTask(task model.Task, today string, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("   ", depth))
	title := escape(normalizeTitle(task.Title))
	if task.IsCompleted {
		title = "<s>" + title + "</s>"
	}
	b.WriteString(fmt.Sprintf("%s <code>%s</code> %s", taskIcon(task, today), shortID(task.ID), title))
	if task.Priority == model.PriorityHigh {
		b.WriteString(" 🔺")
	}
	if done, total := subtaskProgress(task); total > 0 {
		b.WriteString(fmt.Sprintf(" (%d/%d)", done, total))
	}
	if task.DueDate != "" {
		b.WriteString(" · 📅 " + task.DueDate)
	}
	if task.ReminderTime != "" {
		b.WriteString(" · ⏰ " + task.ReminderTime)
	}
	if len(task.SharedWith) > 0 {
		b.WriteString(fmt.Sprintf(" · 👥 %d", len(task.SharedWith)))
	}
	if task.SharedBy != nil {
		b.WriteString(" · from " + escape(task.SharedBy.Name))
	}
	if len(task.Attachments) > 0 {
		b.WriteString(fmt.Sprintf(" · 📎 %d", len(task.Attachments)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatTaskTree(tasks []model.Task, today string, depth int) string {
	var b strings.Builder
	for _, task := range tasks {
		b.WriteString(formatTask(task, today, depth))
		b.WriteString(formatTaskTree(task.SubTasks, today, depth+1))
	}
	return b.String()
}

func formatTaskDetails(task model.Task, today string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", taskIcon(task, today), escape(normalizeTitle(task.Title))))
	b.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", task.ID))
	b.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != "" {
		b.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate))
	}
	if task.ReminderTime != "" {
		b.WriteString(fmt.Sprintf("• <b>Reminder:</b> %s\n", task.ReminderTime))
	}
	if task.ScheduledDate != "" {
		b.WriteString(fmt.Sprintf("• <b>Planned:</b> %s\n", service.HumanDate(task.ScheduledDate)))
	}
	if task.IsPrivate {
		b.WriteString("• <b>Private:</b> hidden from every list\n")
	}
	if task.SharedBy != nil {
		b.WriteString(fmt.Sprintf("• <b>Shared by:</b> %s\n", escape(task.SharedBy.Name)))
	}
	if len(task.SharedWith) > 0 {
		names := make([]string, 0, len(task.SharedWith))
		for _, u := range task.SharedWith {
			names = append(names, escape(u.Name))
		}
		b.WriteString(fmt.Sprintf("• <b>Shared with:</b> %s\n", strings.Join(names, ", ")))
	}
	if notes := strings.TrimSpace(task.Notes); notes != "" {
		b.WriteString(fmt.Sprintf("📝 %s\n", escape(notes)))
	}
	if len(task.SubTasks) > 0 {
		done, total := subtaskProgress(task)
		b.WriteString(fmt.Sprintf("\n<b>Subtasks</b> %d/%d\n", done, total))
		b.WriteString(formatTaskTree(task.SubTasks, today, 0))
	}
	for _, att := range task.Attachments {
		if text := service.NoteText(att); text != "" {
			b.WriteString(fmt.Sprintf("📎 %s\n", escape(text)))
			continue
		}
		b.WriteString(fmt.Sprintf("📎 %s (%s)\n", escape(att.Name), att.Type))
	}
	if links := service.DetectSmartLinks(task.Title + " " + task.Notes); len(links) > 0 {
		b.WriteString("\n<b>Shortcuts</b>\n")
		for _, l := range links {
			b.WriteString(fmt.Sprintf("%s %s: %s\n", l.Icon, escape(l.Label), escape(l.URL)))
		}
	}
	return strings.TrimSpace(b.String())
}

func reminderText(title, body string) string {
	return fmt.Sprintf("<b>%s</b>\n%s", escape(title), escape(body))
}

func celebrationText(palette model.Palette, quote string) string {
	emojis := palette.Emojis
	if len(emojis) == 0 {
		emojis = defaultCelebration
	}
	if len(emojis) > celebrationWidth {
		emojis = emojis[:celebrationWidth]
	}
	return fmt.Sprintf("%s\n<b>List complete!</b>\n<i>%s</i>", strings.Join(emojis, " "), escape(quote))
}

func notificationText(n model.Notification) string {
	return fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(n.Title), escape(n.Message))
}

// findUser matches a directory user by id or by case-insensitive full or first name.
func findUser(ref string) (model.SharedUser, bool) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return model.SharedUser{}, false
	}
	for _, u := range model.KnownUsers() {
		name := strings.ToLower(u.Name)
		first, _, _ := strings.Cut(name, " ")
		if u.ID == ref || name == ref || first == ref {
			return u, true
		}
	}
	return model.SharedUser{}, false
}

// matchCategory accepts a list id, its name, or the keyboard label "icon name".
func matchCategory(categories []model.Category, text string) (model.Category, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	for _, c := range categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if value == c.ID || value == name || value == strings.ToLower(c.Icon+" "+c.Name) {
			return c, true
		}
	}
	return model.Category{}, false
}

func parseOnOff(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "yes", "true", "1":
		return true, true
	case "off", "no", "false", "0":
		return false, true
	}
	return false, false
}

// splitRef separates the leading task reference from the rest of the arguments.
func splitRef(args string) (string, string) {
	args = strings.TrimSpace(args)
	ref, rest, _ := strings.Cut(args, " ")
	return ref, strings.TrimSpace(rest)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLists),
			tgbotapi.NewKeyboardButton(menuLabelInbox),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard offers every list two per row, followed by skip and stop.
func categoryKeyboard(categories []model.Category) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.Icon+" "+c.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
