package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentalist/internal/model"
	"mentalist/internal/repository"
	"mentalist/internal/service"
)

const testChat int64 = 42

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests int
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	msgs := f.messages()
	if len(msgs) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return msgs[len(msgs)-1]
}

// heldTransport keeps sent requests until the test delivers them.
type heldTransport struct {
	handler service.ReceiveHandler
	sent    []model.CollaborationRequest
	to      []model.SharedUser
}

func (t *heldTransport) Send(req model.CollaborationRequest, to model.SharedUser) error {
	t.sent = append(t.sent, req)
	t.to = append(t.to, to)
	return nil
}

func (t *heldTransport) OnReceive(h service.ReceiveHandler) {
	t.handler = h
}

func (t *heldTransport) deliver(i int) {
	req := t.sent[i]
	req.FromUser = t.to[i]
	t.handler(req, t.to[i])
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type botFixture struct {
	bot       *Bot
	api       *fakeAPI
	planner   *service.Planner
	notifier  *Notifier
	transport *heldTransport
}

func newBotFixture(t *testing.T, chatID int64) *botFixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	api := &fakeAPI{}
	notifier := NewNotifier(api, chatID)
	notifier.pick = func(int) int { return 0 }
	transport := &heldTransport{}
	planner := service.NewPlanner(repository.NewStateRepository(db), service.PlannerOptions{
		Clock:      fixedClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		Location:   time.UTC,
		Notifier:   notifier,
		Celebrator: notifier,
		Transport:  transport,
	})
	planner.Load(context.Background())

	return &botFixture{
		bot:       New(api, planner, notifier),
		api:       api,
		planner:   planner,
		notifier:  notifier,
		transport: transport,
	}
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		From:     &tgbotapi.User{ID: chatID, FirstName: "Sam"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Sam"},
	}
}

func (f *botFixture) say(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, f.bot.handleMessage(context.Background(), msg))
}

func TestBot_BindsFirstPrivateChat(t *testing.T) {
	f := newBotFixture(t, 0)
	group := commandMessage(-5, "/start")
	group.Chat.Type = "group"

	f.api.updates = make(chan tgbotapi.Update, 3)
	f.api.updates <- tgbotapi.Update{Message: group}
	f.api.updates <- tgbotapi.Update{Message: commandMessage(testChat, "/start")}
	f.api.updates <- tgbotapi.Update{Message: commandMessage(99, "/tasks")}
	close(f.api.updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.bot.Start(ctx))

	assert.Equal(t, testChat, f.notifier.ChatID())
	msgs := f.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, testChat, msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "Hi, Sam!")
}

func TestBot_NewTaskConversation(t *testing.T) {
	f := newBotFixture(t, testChat)

	f.say(t, commandMessage(testChat, "/newtask"))
	f.say(t, textMessage(testChat, "buy milk"))
	f.say(t, textMessage(testChat, "skip"))
	f.say(t, textMessage(testChat, "Groceries"))
	assert.Contains(t, f.api.last().Text, "don't know that list")
	f.say(t, textMessage(testChat, "💼 Work List"))
	f.say(t, textMessage(testChat, "someday"))
	assert.Contains(t, f.api.last().Text, "can't read that date")
	f.say(t, textMessage(testChat, "skip"))
	f.say(t, textMessage(testChat, "9:05"))

	tasks := f.planner.Tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)
	assert.Equal(t, []string{"work"}, tasks[0].CategoryIDs)
	assert.Equal(t, "09:05", tasks[0].ReminderTime)
	assert.Equal(t, "2026-03-14", tasks[0].DueDate, "a reminder without a date fires today")
	assert.Empty(t, tasks[0].Notes)
	assert.False(t, f.bot.hasConversation(testChat))
	assert.Contains(t, f.api.last().Text, "Work List")
}

func TestBot_StopInputEndsConversation(t *testing.T) {
	f := newBotFixture(t, testChat)
	f.say(t, commandMessage(testChat, "/newtask"))
	f.say(t, textMessage(testChat, btnCancelDialog))
	assert.False(t, f.bot.hasConversation(testChat))
	assert.Empty(t, f.planner.Tasks.Snapshot())
}

func TestBot_CompleteCelebratesFinishedList(t *testing.T) {
	f := newBotFixture(t, testChat)
	f.say(t, commandMessage(testChat, "/newtask call mom"))
	tasks := f.planner.Tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{model.CategoryDaily}, tasks[0].CategoryIDs)

	f.say(t, commandMessage(testChat, "/complete "+shortID(tasks[0].ID)))
	got, _ := f.planner.Tasks.Find(tasks[0].ID)
	assert.True(t, got.IsCompleted)

	var celebrated bool
	for _, text := range f.api.texts() {
		if strings.Contains(text, "List complete!") && strings.Contains(text, escape(model.VictoryQuotes[0])) {
			celebrated = true
		}
	}
	assert.True(t, celebrated, "completing the last task celebrates")

	f.say(t, commandMessage(testChat, "/complete "+shortID(tasks[0].ID)))
	assert.Contains(t, f.api.last().Text, "already done")
	f.say(t, commandMessage(testChat, "/complete nope"))
	assert.Contains(t, f.api.last().Text, "Task not found")
}

func TestBot_DeleteCallbackAsksForConfirmation(t *testing.T) {
	f := newBotFixture(t, testChat)
	task := f.planner.Tasks.Create("old task", model.CategoryDaily, "")

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: testChat},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat, Type: "private"}},
		Data:    cbDeletePrefix + task.ID,
	}
	require.NoError(t, f.bot.handleCallback(context.Background(), cb))
	assert.Equal(t, 1, f.api.requests)
	_, pending := f.bot.getConfirmation(testChat)
	assert.True(t, pending)
	_, ok := f.planner.Tasks.Find(task.ID)
	assert.True(t, ok, "nothing is deleted before confirmation")

	f.say(t, textMessage(testChat, "what?"))
	assert.Contains(t, f.api.last().Text, "Confirm or cancel")

	f.say(t, textMessage(testChat, btnConfirm))
	_, ok = f.planner.Tasks.Find(task.ID)
	assert.False(t, ok)
	_, pending = f.bot.getConfirmation(testChat)
	assert.False(t, pending)
}

func TestBot_InviteIsAnnouncedWithButtons(t *testing.T) {
	f := newBotFixture(t, testChat)
	task := f.planner.Tasks.Create("quarterly review", "work", "")

	f.say(t, commandMessage(testChat, "/invite "+shortID(task.ID)+" sarah"))
	require.Len(t, f.transport.sent, 1)
	assert.Contains(t, f.api.last().Text, "Invite Sent")

	f.transport.deliver(0)
	announce := f.api.last()
	assert.Contains(t, announce.Text, "Sarah Sun invited you")
	markup, ok := announce.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, cbAcceptPrefix+f.transport.sent[0].ID, *markup.InlineKeyboard[0][0].CallbackData)

	before := len(f.api.messages())
	f.say(t, commandMessage(testChat, "/inbox"))
	assert.Len(t, f.api.messages(), before+1)
}

func TestBot_Settings(t *testing.T) {
	f := newBotFixture(t, testChat)

	f.say(t, commandMessage(testChat, "/settings theme ocean"))
	f.say(t, commandMessage(testChat, "/settings volume 150"))
	f.say(t, commandMessage(testChat, "/settings carry off"))
	f.say(t, commandMessage(testChat, "/settings theme plaid"))
	assert.Contains(t, f.api.last().Text, "Unknown theme")

	s := f.planner.Settings()
	assert.Equal(t, "ocean", s.Theme)
	assert.Equal(t, 100, s.Sound.Volume)
	assert.False(t, s.CarryForward)
}

func TestBot_ListsAndProtectedDelete(t *testing.T) {
	f := newBotFixture(t, testChat)

	f.say(t, commandMessage(testChat, "/dellist daily"))
	assert.Contains(t, f.api.last().Text, "can't be deleted")
	assert.Len(t, f.planner.Categories.List(), len(model.DefaultCategories()))

	f.say(t, commandMessage(testChat, "/newlist Garden"))
	active := f.planner.Categories.Active()
	cat, ok := f.planner.Categories.Get(active)
	require.True(t, ok)
	assert.Equal(t, "Garden", cat.Name)

	f.say(t, commandMessage(testChat, "/uselist work"))
	assert.Equal(t, "work", f.planner.Categories.Active())
}

func TestNotifier_Notify(t *testing.T) {
	api := &fakeAPI{}
	n := NewNotifier(api, 0)
	err := n.Notify(context.Background(), "⏰ Reminder: x", "body", "t1")
	assert.ErrorIs(t, err, service.ErrNotifierUnavailable)

	assert.True(t, n.Bind(7))
	assert.False(t, n.Bind(8), "first chat stays bound")
	require.NoError(t, n.Notify(context.Background(), "⏰ Reminder: <x>", "body", "t1"))

	msg := api.last()
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, "<b>⏰ Reminder: &lt;x&gt;</b>\nbody", msg.Text)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, cbConfirmPrefix+"t1", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestBot_PlanGroupsDailyListByDate(t *testing.T) {
	f := newBotFixture(t, testChat)

	f.say(t, commandMessage(testChat, "/plan 2026-03-14 too soon"))
	assert.Contains(t, f.api.last().Text, "Pick a day after today")
	f.say(t, commandMessage(testChat, "/plan soon pack bags"))
	assert.Contains(t, f.api.last().Text, "can't read that date")
	assert.Empty(t, f.planner.Tasks.Snapshot())

	f.say(t, commandMessage(testChat, "/plan 2026-03-22 dentist"))
	assert.Contains(t, f.api.last().Text, "22nd March, 2026")
	f.say(t, commandMessage(testChat, "/plan 2026-03-21 pack bags"))
	f.say(t, commandMessage(testChat, "/newtask call mom"))

	f.say(t, commandMessage(testChat, "/tasks"))
	text := f.api.last().Text
	mom := strings.Index(text, "Call mom")
	first := strings.Index(text, "21st March, 2026")
	bags := strings.Index(text, "Pack bags")
	second := strings.Index(text, "22nd March, 2026")
	dentist := strings.Index(text, "Dentist")
	for _, i := range []int{mom, first, bags, second, dentist} {
		require.GreaterOrEqual(t, i, 0, text)
	}
	assert.True(t, mom < first && first < bags && bags < second && second < dentist, text)
}

func TestBot_AttachNoteShowsInDetails(t *testing.T) {
	f := newBotFixture(t, testChat)
	f.say(t, commandMessage(testChat, "/newtask renew passport"))
	task := f.planner.Tasks.Snapshot()[0]

	f.say(t, commandMessage(testChat, "/attach "+shortID(task.ID)))
	assert.Contains(t, f.api.last().Text, "Usage")

	f.say(t, commandMessage(testChat, "/attach "+shortID(task.ID)+" bring two photos & the old one"))
	assert.Contains(t, f.api.last().Text, "pinned to Renew passport")

	got, _ := f.planner.Tasks.Find(task.ID)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, model.AttachmentNote, got.Attachments[0].Type)

	f.say(t, commandMessage(testChat, "/show "+shortID(task.ID)))
	assert.Contains(t, f.api.last().Text, "📎 bring two photos &amp; the old one")
}
