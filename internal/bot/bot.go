package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageNotes
	stageCategory
	stageDueDate
	stageReminder
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbConfirmPrefix  = "confirm:"
	cbCancelPrefix   = "cancel:"
	cbAcceptPrefix   = "accept:"
	cbDeclinePrefix  = "decline:"
	cbSuggestPrefix  = "suggest:"
)

type taskDraft struct {
	Title        string
	Notes        string
	CategoryID   string
	DueDate      string
	ReminderTime string
}

type conversationState struct {
	stage conversationStage
	draft taskDraft
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
	actionClearAll
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// API is the part of the Telegram client the bot uses.
type API interface {
	sender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the chat front-end of the planner.
type Bot struct {
	api           API
	planner       *service.Planner
	notifier      *Notifier
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(api API, planner *service.Planner, notifier *Notifier) *Bot {
	b := &Bot{
		api:           api,
		planner:       planner,
		notifier:      notifier,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
	planner.Collaboration.OnIncoming(b.announceInvite)
	planner.Notifications.Subscribe(b.relayNotification)
	return b
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[warn] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !b.authorize(update.Message.Chat) {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[warn] handle message: %v", err)
			}
		}
	}

	return nil
}

// authorize admits the bound chat only. The first private chat binds when none is configured.
func (b *Bot) authorize(chat *tgbotapi.Chat) bool {
	if b.notifier.ChatID() == 0 && !chat.IsPrivate() {
		return false
	}
	if !b.notifier.Bind(chat.ID) {
		log.Printf("[warn] ignoring chat %d", chat.ID)
		return false
	}
	return true
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input stopped. Start again whenever you like.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't catch that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTask(msg)
	case "tasks":
		return b.handleListTasks(msg)
	case "show":
		return b.handleShow(msg)
	case "complete":
		return b.handleComplete(msg)
	case "reopen":
		return b.handleReopen(msg)
	case "delete":
		return b.handleDelete(msg)
	case "sub":
		return b.handleSubtask(msg)
	case "note":
		return b.handleNote(msg)
	case "attach":
		return b.handleAttach(msg)
	case "plan":
		return b.handlePlan(ctx, msg)
	case "due":
		return b.handleDue(msg)
	case "remind":
		return b.handleRemind(msg)
	case "priority":
		return b.handlePriority(msg)
	case "private":
		return b.handlePrivate(msg)
	case "hidden":
		return b.handleHidden(msg)
	case "search":
		return b.handleSearch(msg)
	case "breakdown":
		return b.handleBreakdown(ctx, msg)
	case "lists":
		return b.handleLists(msg)
	case "uselist":
		return b.handleUseList(msg)
	case "newlist":
		return b.handleNewList(msg)
	case "renamelist":
		return b.handleRenameList(msg)
	case "listicon":
		return b.handleListIcon(msg)
	case "movelist":
		return b.handleMoveList(msg)
	case "dellist":
		return b.handleDeleteList(msg)
	case "share":
		return b.handleShare(msg)
	case "invite":
		return b.handleInvite(msg)
	case "inbox":
		return b.handleInbox(msg)
	case "notifications":
		return b.handleNotifications(msg)
	case "suggest":
		return b.handleSuggest(ctx, msg)
	case "quote":
		return b.sendText(msg.Chat.ID, fmt.Sprintf("💬 <i>%s</i>", escape(b.planner.Quote(ctx))))
	case "celebrate":
		b.planner.Celebrate()
		return nil
	case "settings":
		return b.handleSettings(ctx, msg)
	case "clear":
		b.setConfirmation(msg.From.ID, confirmationRequest{action: actionClearAll})
		return b.sendWithReplyMarkup(msg.Chat.ID, "Delete <b>every</b> task? This cannot be undone.", confirmKeyboard())
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input stopped.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Take a look at /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>MentaList keeps your lists, reminders and shared tasks in one place.</b>\n\n💬 <i>%s</i>\n\n"+
			"• /newtask to add a task\n"+
			"• /tasks to see the active list\n"+
			"• /lists to switch lists\n"+
			"• /help for everything else",
		escape(name), escape(b.planner.Quote(ctx)),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"Tasks are referenced by the short id shown next to them.\n\n" +
		"• /newtask [title] to add a task, step by step without a title\n" +
		"• /tasks [list] to show a list\n" +
		"• /show &lt;id&gt; for details and shortcuts\n" +
		"• /complete &lt;id&gt; and /reopen &lt;id&gt;\n" +
		"• /delete &lt;id&gt; to remove a task and its subtasks\n" +
		"• /sub &lt;id&gt; &lt;title&gt; to add a subtask\n" +
		"• /breakdown &lt;id&gt; to let AI suggest subtasks\n" +
		"• /note &lt;id&gt; &lt;text&gt;, /priority &lt;id&gt; low|medium|high\n" +
		"• /attach &lt;id&gt; &lt;text&gt; to pin a note to a task\n" +
		"• /plan &lt;YYYY-MM-DD&gt; &lt;title&gt; to plan a task for a later day\n" +
		"• /due &lt;id&gt; &lt;YYYY-MM-DD|today|off&gt;\n" +
		"• /remind &lt;id&gt; &lt;HH:MM|off&gt; [date]\n" +
		"• /private &lt;id&gt; and /hidden for private tasks\n" +
		"• /search &lt;text&gt;\n" +
		"• /lists, /uselist, /newlist, /renamelist, /listicon, /movelist, /dellist\n" +
		"• /share &lt;id&gt; &lt;user&gt; and /invite &lt;id&gt; &lt;user&gt; [inform]\n" +
		"• /inbox and /notifications\n" +
		"• /suggest, /quote, /celebrate\n" +
		"• /settings [key value]\n" +
		"• /clear to delete every task\n" +
		"• /cancel to stop the current input"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTask(msg *tgbotapi.Message) error {
	if title := strings.TrimSpace(msg.CommandArguments()); title != "" {
		return b.quickAdd(msg.Chat.ID, title)
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) quickAdd(chatID int64, title string) error {
	active := b.planner.Categories.Active()
	task := b.planner.Tasks.Create(title, active, "")
	log.Printf("[info] task created id=%s list=%s", task.ID, active)
	cat, _ := b.planner.Categories.Get(active)
	return b.sendText(chatID, fmt.Sprintf("✅ Added <code>%s</code> %s to %s.", shortID(task.ID), escape(normalizeTitle(task.Title)), categoryLabel(cat)))
}

func (b *Bot) handleConversation(msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		}
		state.draft.Title = text
		state.stage = stageNotes
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short note (or press Skip).", skipKeyboard())
	case stageNotes:
		if !isSkipInput(text) {
			state.draft.Notes = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a list (Skip keeps the active one).", categoryKeyboard(b.planner.Categories.List()))
	case stageCategory:
		if isSkipInput(text) {
			state.draft.CategoryID = b.planner.Categories.Active()
		} else {
			cat, ok := matchCategory(b.planner.Categories.List(), text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I don't know that list. Pick one from the keyboard.", categoryKeyboard(b.planner.Categories.List()))
			}
			state.draft.CategoryID = cat.ID
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Due date as <code>2026-03-14</code> or <code>today</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			date, err := b.parseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2026-03-14</code>, <code>today</code> or Skip.", skipKeyboard())
			}
			state.draft.DueDate = date
		}
		state.stage = stageReminder
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Reminder time as <code>09:30</code> (or Skip).", skipKeyboard())
	case stageReminder:
		if !isSkipInput(text) {
			at, err := service.ParseReminderTime(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that time. Use <code>09:30</code> or Skip.", skipKeyboard())
			}
			state.draft.ReminderTime = at
			if state.draft.DueDate == "" {
				state.draft.DueDate = b.planner.Today()
			}
		}
		draft := state.draft
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(msg.Chat.ID, draft)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(chatID int64, draft taskDraft) error {
	task := b.planner.Tasks.Create(draft.Title, draft.CategoryID, "")
	var patch model.TaskPatch
	if draft.Notes != "" {
		patch.Notes = &draft.Notes
	}
	if draft.DueDate != "" {
		patch.DueDate = &draft.DueDate
	}
	if draft.ReminderTime != "" {
		patch.ReminderTime = &draft.ReminderTime
	}
	if !patch.IsEmpty() {
		b.planner.Tasks.Update(task.ID, patch)
	}
	log.Printf("[info] task created id=%s list=%s reminder=%q", task.ID, draft.CategoryID, draft.ReminderTime)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	if draft.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Note:</b> %s\n", escape(draft.Notes)))
	}
	if draft.DueDate != "" {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", draft.DueDate))
	}
	if draft.ReminderTime != "" {
		summary.WriteString(fmt.Sprintf("• <b>Reminder:</b> %s\n", draft.ReminderTime))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(chatID, draft.CategoryID)
}

func (b *Bot) handleListTasks(msg *tgbotapi.Message) error {
	categoryID := b.planner.Categories.Active()
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		cat, ok := matchCategory(b.planner.Categories.List(), arg)
		if !ok {
			return b.sendText(msg.Chat.ID, "List not found. See /lists.")
		}
		categoryID = cat.ID
	}
	return b.sendTaskList(msg.Chat.ID, categoryID)
}

func (b *Bot) sendTaskList(chatID int64, categoryID string) error {
	cat, ok := b.planner.Categories.Get(categoryID)
	if !ok {
		return b.sendText(chatID, "List not found. See /lists.")
	}
	tasks := b.planner.Tasks.FilterByCategory(categoryID)
	if len(tasks) == 0 {
		return b.sendText(chatID, fmt.Sprintf("%s is empty. Add a task with /newtask.", categoryLabel(cat)))
	}

	today := b.planner.Today()
	done := 0
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <b>(%d/%d)</b>\n\n", categoryLabel(cat), done, len(tasks)))
	if categoryID == model.CategoryDaily {
		unscheduled, groups := service.SplitScheduled(tasks)
		builder.WriteString(formatTaskTree(unscheduled, today, 0))
		for _, g := range groups {
			builder.WriteString(fmt.Sprintf("\n📅 <b>%s</b>\n", service.HumanDate(g.Date)))
			builder.WriteString(formatTaskTree(g.Tasks, today, 0))
		}
	} else {
		builder.WriteString(formatTaskTree(tasks, today, 0))
	}
	if b.planner.Tasks.AllCompleted(categoryID) {
		builder.WriteString("\n🎉 Everything here is done!")
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.IsCompleted || len(buttons) == maxTaskButtons {
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(task.Title, buttonTitleLen), cbCompletePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

// resolveTask looks up the task named by the first argument and reports misses to the chat.
func (b *Bot) resolveTask(msg *tgbotapi.Message, usage string) (model.Task, string, bool, error) {
	ref, rest := splitRef(msg.CommandArguments())
	if ref == "" {
		return model.Task{}, "", false, b.sendText(msg.Chat.ID, "Usage: "+usage)
	}
	task, ok := b.planner.Tasks.Resolve(ref)
	if !ok {
		return model.Task{}, "", false, b.sendText(msg.Chat.ID, "Task not found.")
	}
	return task, rest, true, nil
}

func (b *Bot) handleShow(msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/show &lt;id&gt;")
	if !ok {
		return err
	}
	b.planner.Tasks.Select(task.ID)
	return b.sendText(msg.Chat.ID, formatTaskDetails(task, b.planner.Today()))
}

func (b *Bot) handleComplete(msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/complete &lt;id&gt;")
	if !ok {
		return err
	}
	if task.IsCompleted {
		return b.sendText(msg.Chat.ID, "That task is already done.")
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{IsCompleted: ptr(true)})
	log.Printf("[info] task completed id=%s", task.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ %s is done.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleReopen(msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/reopen &lt;id&gt;")
	if !ok {
		return err
	}
	if !task.IsCompleted {
		return b.sendText(msg.Chat.ID, "That task is still open.")
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{IsCompleted: ptr(false)})
	return b.sendText(msg.Chat.ID, fmt.Sprintf("↩️ %s is open again.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleDelete(msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/delete &lt;id&gt;")
	if !ok {
		return err
	}
	b.planner.Tasks.Delete(task.ID)
	log.Printf("[info] task deleted id=%s", task.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 %s deleted.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleSubtask(msg *tgbotapi.Message) error {
	task, title, ok, err := b.resolveTask(msg, "/sub &lt;id&gt; &lt;title&gt;")
	if !ok {
		return err
	}
	sub, _ := b.planner.Tasks.AddSubtask(task.ID, title)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("➕ <code>%s</code> %s added under %s.", shortID(sub.ID), escape(normalizeTitle(sub.Title)), escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleNote(msg *tgbotapi.Message) error {
	task, note, ok, err := b.resolveTask(msg, "/note &lt;id&gt; &lt;text&gt;")
	if !ok {
		return err
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{Notes: &note})
	if note == "" {
		return b.sendText(msg.Chat.ID, "📝 Note cleared.")
	}
	return b.sendText(msg.Chat.ID, "📝 Note saved.")
}

func (b *Bot) handleAttach(msg *tgbotapi.Message) error {
	task, text, ok, err := b.resolveTask(msg, "/attach &lt;id&gt; &lt;text&gt;")
	if !ok {
		return err
	}
	att, ok := b.planner.Tasks.AttachNote(task.ID, text)
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /attach &lt;id&gt; &lt;text&gt;")
	}
	log.Printf("[info] note attached task=%s attachment=%s", task.ID, att.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📎 %s pinned to %s.", escape(att.Name), escape(normalizeTitle(task.Title))))
}

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message) error {
	date, title := splitRef(msg.CommandArguments())
	if date == "" || title == "" {
		return b.sendText(msg.Chat.ID, "Usage: /plan &lt;YYYY-MM-DD&gt; &lt;title&gt;")
	}
	task, err := b.planner.PlanAhead(ctx, title, "", date)
	switch {
	case errors.Is(err, service.ErrNotInFuture):
		return b.sendText(msg.Chat.ID, "Pick a day after today. Tasks for today go straight in with /newtask.")
	case err != nil:
		return b.sendText(msg.Chat.ID, "I can't read that date. Use <code>2026-03-21</code>.")
	}
	log.Printf("[info] task planned id=%s date=%s", task.ID, task.ScheduledDate)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📅 <code>%s</code> %s planned for %s.", shortID(task.ID), escape(normalizeTitle(task.Title)), service.HumanDate(task.ScheduledDate)))
}

func (b *Bot) handleDue(msg *tgbotapi.Message) error {
	task, arg, ok, err := b.resolveTask(msg, "/due &lt;id&gt; &lt;YYYY-MM-DD|today|off&gt;")
	if !ok {
		return err
	}
	if strings.EqualFold(arg, "off") {
		b.planner.Tasks.Update(task.ID, model.TaskPatch{DueDate: ptr(""), ReminderTime: ptr("")})
		return b.sendText(msg.Chat.ID, "📅 Due date and reminder cleared.")
	}
	date, err := b.parseDate(arg)
	if err != nil {
		return b.sendText(msg.Chat.ID, "I can't read that date. Use <code>2026-03-14</code> or <code>today</code>.")
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{DueDate: &date})
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📅 %s is due %s.", escape(normalizeTitle(task.Title)), date))
}

func (b *Bot) handleRemind(msg *tgbotapi.Message) error {
	task, args, ok, err := b.resolveTask(msg, "/remind &lt;id&gt; &lt;HH:MM|off&gt; [date]")
	if !ok {
		return err
	}
	at, dateArg, _ := strings.Cut(args, " ")
	if strings.EqualFold(at, "off") {
		b.planner.Tasks.Update(task.ID, model.TaskPatch{ReminderTime: ptr("")})
		return b.sendText(msg.Chat.ID, "🔕 Reminder removed.")
	}
	at, err = service.ParseReminderTime(at)
	if err != nil {
		return b.sendText(msg.Chat.ID, "I can't read that time. Use <code>09:30</code>.")
	}

	date := task.DueDate
	if strings.TrimSpace(dateArg) != "" {
		if date, err = b.parseDate(dateArg); err != nil {
			return b.sendText(msg.Chat.ID, "I can't read that date. Use <code>2026-03-14</code> or <code>today</code>.")
		}
	}
	if date == "" {
		date = b.planner.Today()
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{ReminderTime: &at, DueDate: &date})
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⏰ I'll remind you about %s on %s at %s.", escape(normalizeTitle(task.Title)), date, at))
}

func (b *Bot) handlePriority(msg *tgbotapi.Message) error {
	task, arg, ok, err := b.resolveTask(msg, "/priority &lt;id&gt; low|medium|high")
	if !ok {
		return err
	}
	priority := model.Priority(strings.ToLower(arg))
	if !priority.Valid() {
		return b.sendText(msg.Chat.ID, "Priority is one of low, medium, high.")
	}
	b.planner.Tasks.Update(task.ID, model.TaskPatch{Priority: &priority})
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Priority of %s set to %s.", escape(normalizeTitle(task.Title)), priority))
}

func (b *Bot) handlePrivate(msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/private &lt;id&gt;")
	if !ok {
		return err
	}
	private := !task.IsPrivate
	b.planner.Tasks.Update(task.ID, model.TaskPatch{IsPrivate: &private})
	if private {
		return b.sendText(msg.Chat.ID, "🔒 Hidden from every list. Find it with /hidden.")
	}
	return b.sendText(msg.Chat.ID, "🔓 Visible again.")
}

func (b *Bot) handleHidden(msg *tgbotapi.Message) error {
	hidden := b.planner.Tasks.Hidden()
	if len(hidden) == 0 {
		return b.sendText(msg.Chat.ID, "No private tasks.")
	}
	return b.sendText(msg.Chat.ID, "🔒 <b>Private tasks</b>\n\n"+strings.TrimSpace(formatTaskTree(hidden, b.planner.Today(), 0)))
}

func (b *Bot) handleSearch(msg *tgbotapi.Message) error {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		return b.sendText(msg.Chat.ID, "Usage: /search &lt;text&gt;")
	}
	results := b.planner.Tasks.Search(query, b.planner.Categories.List())
	if len(results) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Nothing matches «%s».", escape(query)))
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔎 <b>%s</b>\n\n", escape(query)))
	for _, r := range results {
		status := ""
		if r.Task.IsCompleted {
			status = " " + iconDone
		}
		builder.WriteString(fmt.Sprintf("%s %s · <code>%s</code> %s%s\n", r.CategoryIcon, escape(r.CategoryName), shortID(r.Task.ID), escape(normalizeTitle(r.Task.Title)), status))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleBreakdown(ctx context.Context, msg *tgbotapi.Message) error {
	task, _, ok, err := b.resolveTask(msg, "/breakdown &lt;id&gt;")
	if !ok {
		return err
	}
	created := b.planner.BreakDown(ctx, task.ID)
	if len(created) == 0 {
		return b.sendText(msg.Chat.ID, "🤖 No suggestions right now. Try again later.")
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🤖 <b>%s</b> broken down:\n", escape(normalizeTitle(task.Title))))
	for _, sub := range created {
		builder.WriteString(fmt.Sprintf("• <code>%s</code> %s\n", shortID(sub.ID), escape(sub.Title)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleLists(msg *tgbotapi.Message) error {
	active := b.planner.Categories.Active()
	var builder strings.Builder
	builder.WriteString("📂 <b>Lists</b>\n")
	for _, cat := range b.planner.Categories.List() {
		marker := "•"
		if cat.ID == active {
			marker = "👉"
		}
		builder.WriteString(fmt.Sprintf("%s %s <code>%s</code> (%d)\n", marker, categoryLabel(cat), escape(cat.ID), b.planner.Tasks.CountByCategory(cat.ID)))
	}
	builder.WriteString("\nSwitch with /uselist &lt;id&gt;.")
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleUseList(msg *tgbotapi.Message) error {
	cat, ok := matchCategory(b.planner.Categories.List(), msg.CommandArguments())
	if !ok || !b.planner.Categories.SetActive(cat.ID) {
		return b.sendText(msg.Chat.ID, "List not found. See /lists.")
	}
	return b.sendTaskList(msg.Chat.ID, cat.ID)
}

func (b *Bot) handleNewList(msg *tgbotapi.Message) error {
	cat := b.planner.Categories.Create()
	if name := strings.TrimSpace(msg.CommandArguments()); name != "" {
		b.planner.Categories.Rename(cat.ID, name)
		cat, _ = b.planner.Categories.Get(cat.ID)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📂 %s created and active. Id: <code>%s</code>", categoryLabel(cat), escape(cat.ID)))
}

func (b *Bot) handleRenameList(msg *tgbotapi.Message) error {
	id, name := splitRef(msg.CommandArguments())
	if !b.planner.Categories.Rename(id, name) {
		return b.sendText(msg.Chat.ID, "Usage: /renamelist &lt;id&gt; &lt;name&gt;")
	}
	return b.sendText(msg.Chat.ID, "✏️ List renamed.")
}

func (b *Bot) handleListIcon(msg *tgbotapi.Message) error {
	id, icon := splitRef(msg.CommandArguments())
	if icon == "" || !b.planner.Categories.SetIcon(id, icon) {
		return b.sendText(msg.Chat.ID, "Usage: /listicon &lt;id&gt; &lt;emoji&gt;")
	}
	return b.sendText(msg.Chat.ID, "List icon updated.")
}

func (b *Bot) handleMoveList(msg *tgbotapi.Message) error {
	id, dir := splitRef(msg.CommandArguments())
	var moved bool
	switch strings.ToLower(dir) {
	case "up":
		moved = b.planner.Categories.MoveUp(id)
	case "down":
		moved = b.planner.Categories.MoveDown(id)
	default:
		return b.sendText(msg.Chat.ID, "Usage: /movelist &lt;id&gt; up|down")
	}
	if !moved {
		return b.sendText(msg.Chat.ID, "That list can't move further.")
	}
	return b.handleLists(msg)
}

func (b *Bot) handleDeleteList(msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if model.IsProtected(id) {
		return b.sendText(msg.Chat.ID, "The Daily and Shared lists can't be deleted.")
	}
	if !b.planner.Categories.Delete(id) {
		return b.sendText(msg.Chat.ID, "List not found. See /lists.")
	}
	return b.sendText(msg.Chat.ID, "🗑 List deleted. Its tasks stay in their other lists or move to the Daily List.")
}

func (b *Bot) handleShare(msg *tgbotapi.Message) error {
	task, who, ok, err := b.resolveTask(msg, "/share &lt;id&gt; &lt;user&gt;")
	if !ok {
		return err
	}
	user, found := findUser(who)
	if !found {
		return b.sendText(msg.Chat.ID, "Unknown user. Try "+knownUserNames()+".")
	}
	shared, _ := b.planner.Tasks.ToggleShare(task.ID, user)
	if shared {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("👥 %s now sees %s.", escape(user.Name), escape(normalizeTitle(task.Title))))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👤 %s no longer sees %s.", escape(user.Name), escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleInvite(msg *tgbotapi.Message) error {
	task, args, ok, err := b.resolveTask(msg, "/invite &lt;id&gt; &lt;user&gt; [inform]")
	if !ok {
		return err
	}
	who, mode, _ := strings.Cut(args, " ")
	user, found := findUser(who)
	if !found {
		return b.sendText(msg.Chat.ID, "Unknown user. Try "+knownUserNames()+".")
	}
	typ := model.RequestCollaborate
	if strings.EqualFold(strings.TrimSpace(mode), string(model.RequestInform)) {
		typ = model.RequestInform
	}
	if _, err := b.planner.Collaboration.Send(task, user, typ); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't send the invite: %s", escape(err.Error())))
	}
	return nil
}

func knownUserNames() string {
	var names []string
	for _, u := range model.KnownUsers() {
		names = append(names, escape(u.Name))
	}
	return strings.Join(names, ", ")
}

func (b *Bot) handleInbox(msg *tgbotapi.Message) error {
	pending := b.planner.Collaboration.Pending()
	if len(pending) == 0 {
		return b.sendText(msg.Chat.ID, "📭 No pending invites.")
	}
	for _, req := range pending {
		if err := b.sendInvite(msg.Chat.ID, req); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendInvite(chatID int64, req model.CollaborationRequest) error {
	text := fmt.Sprintf("📬 <b>Collaboration Invite</b>\n%s invited you to collaborate on «%s».", escape(req.FromUser.Name), escape(req.TaskTitle))
	if req.Type == model.RequestInform {
		text = fmt.Sprintf("📬 <b>Shared Task</b>\n%s shared «%s» with you.", escape(req.FromUser.Name), escape(req.TaskTitle))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Accept", cbAcceptPrefix+req.ID),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Decline", cbDeclinePrefix+req.ID),
	))
	return b.sendWithReplyMarkup(chatID, text, markup)
}

// announceInvite pushes a newly arrived request to the bound chat.
func (b *Bot) announceInvite(req model.CollaborationRequest) {
	chatID := b.notifier.ChatID()
	if chatID == 0 {
		log.Printf("[info] invite %s waiting in inbox: no chat bound", req.ID)
		return
	}
	if err := b.sendInvite(chatID, req); err != nil {
		log.Printf("[warn] announce invite %s: %v", req.ID, err)
	}
}

// relayNotification mirrors the activity feed into the chat. Received invites are
// announced separately with their buttons.
func (b *Bot) relayNotification(n model.Notification) {
	if n.Type == model.NotificationInviteReceived {
		return
	}
	chatID := b.notifier.ChatID()
	if chatID == 0 {
		return
	}
	if err := b.sendText(chatID, notificationText(n)); err != nil {
		log.Printf("[warn] relay notification %s: %v", n.ID, err)
	}
}

func (b *Bot) handleNotifications(msg *tgbotapi.Message) error {
	feed := b.planner.Notifications.List()
	if len(feed) == 0 {
		return b.sendText(msg.Chat.ID, "🔔 Nothing new.")
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔔 <b>Notifications</b> (%d unread)\n\n", b.planner.Notifications.UnreadCount()))
	for i, n := range feed {
		if i == maxFeedEntries {
			builder.WriteString(fmt.Sprintf("…and %d older\n", len(feed)-maxFeedEntries))
			break
		}
		dot := "▫️"
		if !n.IsRead {
			dot = "🔹"
		}
		builder.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", dot, escape(n.Title), escape(n.Message)))
	}
	b.planner.Notifications.MarkAllRead()
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleSuggest(ctx context.Context, msg *tgbotapi.Message) error {
	suggestions := b.planner.QuickAdd(ctx)
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, s := range suggestions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s, cbSuggestPrefix+strconv.Itoa(i)),
		))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, "💡 Tap a suggestion to add it to the active list.", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	key, value := splitRef(strings.ToLower(msg.CommandArguments()))
	if key == "" {
		return b.sendText(msg.Chat.ID, formatSettings(b.planner.Settings()))
	}

	var apply func(s *model.Settings)
	switch key {
	case "theme":
		theme := model.FindTheme(value)
		if theme.ID != value {
			return b.sendText(msg.Chat.ID, "Unknown theme. "+themeNames())
		}
		apply = func(s *model.Settings) { s.Theme = theme.ID }
	case "mode":
		mode := model.DisplayMode(value)
		if mode != model.DisplayLight && mode != model.DisplayDark && mode != model.DisplaySystem {
			return b.sendText(msg.Chat.ID, "Mode is one of light, dark, system.")
		}
		apply = func(s *model.Settings) { s.DisplayMode = mode }
	case "volume":
		volume, err := strconv.Atoi(value)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Volume is a number from 0 to 100.")
		}
		apply = func(s *model.Settings) { s.Sound.Volume = volume }
	case "tone":
		sound := model.FindSound(value)
		if sound.ID != value {
			return b.sendText(msg.Chat.ID, "Unknown tone.")
		}
		apply = func(s *model.Settings) { s.Sound.SoundID = sound.ID }
	case "carry", "rotation", "sound", "vibration":
		on, ok := parseOnOff(value)
		if !ok {
			return b.sendText(msg.Chat.ID, "Use on or off.")
		}
		apply = func(s *model.Settings) {
			switch key {
			case "carry":
				s.CarryForward = on
			case "rotation":
				s.RotationEnabled = on
			case "sound":
				s.Sound.Enabled = on
			case "vibration":
				s.Sound.Vibration = on
			}
		}
	default:
		return b.sendText(msg.Chat.ID, "Unknown setting. Send /settings to see them all.")
	}

	if err := b.planner.UpdateSettings(ctx, apply); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't save settings: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatSettings(b.planner.Settings()))
}

func formatSettings(s model.Settings) string {
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	theme := model.FindTheme(s.Theme)
	sound := model.FindSound(s.Sound.SoundID)
	return fmt.Sprintf("⚙️ <b>Settings</b>\n"+
		"• theme: %s %s\n"+
		"• mode: %s\n"+
		"• sound: %s, tone: %s %s, volume: %d\n"+
		"• vibration: %s\n"+
		"• carry: %s\n"+
		"• rotation: %s\n\n"+
		"Change with /settings &lt;key&gt; &lt;value&gt;.",
		theme.Icon, theme.ID, s.DisplayMode,
		onOff(s.Sound.Enabled), sound.Emoji, sound.ID, s.Sound.Volume,
		onOff(s.Sound.Vibration), onOff(s.CarryForward), onOff(s.RotationEnabled))
}

func themeNames() string {
	ids := make([]string, 0, len(model.Themes))
	for _, t := range model.Themes {
		ids = append(ids, t.ID)
	}
	return "Available: " + strings.Join(ids, ", ")
}

func (b *Bot) handleConfirmationResponse(msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		switch req.action {
		case actionDelete:
			return b.deleteTaskAndRefresh(msg.Chat.ID, req.taskID)
		case actionClearAll:
			b.planner.Tasks.ClearAll()
			log.Printf("[info] all tasks cleared")
			return b.sendTextWithRemove(msg.Chat.ID, "🧹 Every task was deleted.")
		default:
			return b.completeTaskAndRefresh(msg.Chat.ID, req.taskID)
		}
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel first.", confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}
	if !b.authorize(cb.Message.Chat) {
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		return b.askConfirmation(chatID, cb.From.ID, strings.TrimPrefix(data, cbCompletePrefix), actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askConfirmation(chatID, cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix), actionDelete)
	case strings.HasPrefix(data, cbConfirmPrefix):
		return b.completeTaskAndRefresh(chatID, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbAcceptPrefix):
		task, err := b.planner.AcceptInvite(strings.TrimPrefix(data, cbAcceptPrefix))
		if err != nil {
			return b.sendText(chatID, inviteError(err))
		}
		log.Printf("[info] invite accepted task=%s", task.ID)
		return b.sendTaskList(chatID, model.CategoryShared)
	case strings.HasPrefix(data, cbDeclinePrefix):
		if err := b.planner.Collaboration.Decline(strings.TrimPrefix(data, cbDeclinePrefix)); err != nil {
			return b.sendText(chatID, inviteError(err))
		}
		return nil
	case strings.HasPrefix(data, cbSuggestPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, cbSuggestPrefix))
		suggestions := b.planner.QuickAdd(ctx)
		if err != nil || idx < 0 || idx >= len(suggestions) {
			return b.sendText(chatID, "That suggestion is gone. Send /suggest again.")
		}
		return b.quickAdd(chatID, strings.TrimPrefix(suggestions[idx], "🔄 "))
	default:
		return nil
	}
}

func inviteError(err error) string {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		return "That invite no longer exists."
	case errors.Is(err, service.ErrRequestResolved):
		return "That invite was already answered."
	default:
		return fmt.Sprintf("Error: %s", escape(err.Error()))
	}
}

func (b *Bot) askConfirmation(chatID, userID int64, taskID string, action confirmationAction) error {
	task, ok := b.planner.Tasks.Find(taskID)
	if !ok {
		return b.sendText(chatID, "Task not found.")
	}
	var text string
	if action == actionDelete {
		text = fmt.Sprintf("Delete «%s» (<code>%s</code>) and its subtasks?", escape(normalizeTitle(task.Title)), shortID(task.ID))
	} else {
		if task.IsCompleted {
			return b.sendText(chatID, "That task is already done.")
		}
		text = fmt.Sprintf("Mark «%s» (<code>%s</code>) as done?", escape(normalizeTitle(task.Title)), shortID(task.ID))
	}
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(chatID int64, taskID string) error {
	task, ok := b.planner.Tasks.Find(taskID)
	if !ok {
		return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
	}
	if task.IsCompleted {
		return b.sendTextWithRemove(chatID, "That task was already done.")
	}
	b.planner.Tasks.Update(taskID, model.TaskPatch{IsCompleted: ptr(true)})
	log.Printf("[info] task completed id=%s", taskID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✅ %s is done.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(chatID, b.planner.Categories.Active())
}

func (b *Bot) deleteTaskAndRefresh(chatID int64, taskID string) error {
	task, ok := b.planner.Tasks.Find(taskID)
	if !ok || !b.planner.Tasks.Delete(taskID) {
		return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
	}
	log.Printf("[info] task deleted id=%s", taskID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 %s deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(chatID, b.planner.Categories.Active())
}

func (b *Bot) parseDate(text string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(text), "today") {
		return b.planner.Today(), nil
	}
	return service.ParseDate(strings.TrimSpace(text))
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewTask(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(msg)
	case strings.ToLower(menuLabelLists):
		return true, b.handleLists(msg)
	case strings.ToLower(menuLabelInbox):
		return true, b.handleInbox(msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func ptr[T any](v T) *T { return &v }
