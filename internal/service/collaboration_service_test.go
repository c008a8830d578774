package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentalist/internal/model"
)

func immediate(_ time.Duration, fn func()) { fn() }

type collabFixture struct {
	tasks  *TaskService
	feed   *NotificationService
	collab *CollaborationService
}

func newCollabFixture(deliver bool) collabFixture {
	clock := &fixedClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	tasks := NewTaskService(clock)
	feed := NewNotificationService(clock)
	transport := NewLoopbackTransport(LoopbackDelay)
	transport.afterFunc = immediate
	if !deliver {
		transport.afterFunc = func(time.Duration, func()) {}
	}
	collab := NewCollaborationService(transport, feed, tasks, clock)
	collab.afterFunc = immediate
	return collabFixture{tasks: tasks, feed: feed, collab: collab}
}

func feedTypes(items []model.Notification) []model.NotificationType {
	out := make([]model.NotificationType, 0, len(items))
	for _, n := range items {
		out = append(out, n.Type)
	}
	return out
}

func TestCollaboration_SendAcceptRoundTrip(t *testing.T) {
	f := newCollabFixture(true)
	sarah, _ := model.FindUser("u2")
	task := f.tasks.Create("Plan offsite", "work", "")

	var incoming []model.CollaborationRequest
	f.collab.OnIncoming(func(r model.CollaborationRequest) { incoming = append(incoming, r) })

	req, err := f.collab.Send(task, sarah, model.RequestCollaborate)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, model.CurrentUser, req.FromUser)

	pending := f.collab.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, sarah, pending[0].FromUser, "loopback swaps the sender")
	require.Len(t, incoming, 1)

	shared, err := f.collab.Accept(req.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RequestAccepted, f.collab.Sent()[0].Status)
	assert.Equal(t, model.RequestAccepted, f.collab.Inbox()[0].Status)
	assert.Empty(t, f.collab.Pending())

	inShared := f.tasks.FilterByCategory(model.CategoryShared)
	require.Len(t, inShared, 1)
	assert.Equal(t, shared.ID, inShared[0].ID)
	assert.Equal(t, task.Title, inShared[0].Title)
	require.NotNil(t, inShared[0].SharedBy)
	assert.Equal(t, sarah.ID, inShared[0].SharedBy.ID)

	types := feedTypes(f.feed.List())
	assert.Contains(t, types, model.NotificationTaskShared)
	assert.Contains(t, types, model.NotificationInviteReceived)
	accepted := 0
	for _, typ := range types {
		if typ == model.NotificationInviteAccepted {
			accepted++
		}
	}
	assert.Equal(t, 2, accepted, "recipient entry plus the sender echo")
	assert.Equal(t, "Collaboration Accepted! 🎉", f.feed.List()[0].Title)
}

func TestCollaboration_DeclineAndTerminalState(t *testing.T) {
	f := newCollabFixture(true)
	leo, _ := model.FindUser("u3")
	task := f.tasks.Create("Garage sale", "personal", "")

	req, err := f.collab.Send(task, leo, model.RequestInform)
	require.NoError(t, err)
	require.NoError(t, f.collab.Decline(req.ID))

	assert.Equal(t, model.RequestDeclined, f.collab.Inbox()[0].Status)
	assert.Empty(t, f.tasks.FilterByCategory(model.CategoryShared))
	assert.Equal(t, `Your collaboration invite for "Garage sale" was declined`, f.feed.List()[0].Message)

	before := f.feed.List()
	_, err = f.collab.Accept(req.ID)
	assert.True(t, errors.Is(err, ErrRequestResolved))
	assert.ErrorIs(t, f.collab.Decline(req.ID), ErrRequestResolved)
	assert.Equal(t, before, f.feed.List())
	assert.Equal(t, model.RequestDeclined, f.collab.Sent()[0].Status)
}

func TestCollaboration_UnknownRequest(t *testing.T) {
	f := newCollabFixture(true)
	_, err := f.collab.Accept("missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.ErrorIs(t, f.collab.Decline("missing"), ErrRequestNotFound)
	assert.Empty(t, f.feed.List())
}

func TestCollaboration_AcceptBeforeDelivery(t *testing.T) {
	f := newCollabFixture(false)
	alex, _ := model.FindUser("u1")
	task := f.tasks.Create("Read draft", "work", "")

	req, err := f.collab.Send(task, alex, model.RequestCollaborate)
	require.NoError(t, err)
	assert.Empty(t, f.collab.Inbox())

	shared, err := f.collab.Accept(req.ID)
	require.NoError(t, err)
	require.NotNil(t, shared.SharedBy)
	assert.Equal(t, alex.ID, shared.SharedBy.ID)
}

func TestNotificationService_FeedOrderAndReadState(t *testing.T) {
	feed := NewNotificationService(&fixedClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)})
	var seen []string
	feed.Subscribe(func(n model.Notification) { seen = append(seen, n.Title) })

	first := feed.Append(model.Notification{Type: model.NotificationTaskShared, Title: "one", IsRead: true})
	feed.Append(model.Notification{Type: model.NotificationTaskShared, Title: "two"})

	items := feed.List()
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Title)
	assert.False(t, items[1].IsRead, "append always starts unread")
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(1773480600000), first.CreatedAt)
	assert.Equal(t, []string{"one", "two"}, seen)
	assert.Equal(t, 2, feed.UnreadCount())

	assert.True(t, feed.MarkRead(first.ID))
	assert.False(t, feed.MarkRead("missing"))
	assert.Equal(t, 1, feed.UnreadCount())

	feed.MarkAllRead()
	assert.Zero(t, feed.UnreadCount())
}
