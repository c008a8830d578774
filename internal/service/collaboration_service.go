package service

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"mentalist/internal/model"
)

const (
	// LoopbackDelay is how long the in-process transport waits before delivering.
	LoopbackDelay = 500 * time.Millisecond
	// EchoDelay is how long the sender side takes to "hear" about an answer.
	EchoDelay = 300 * time.Millisecond
)

var (
	ErrRequestNotFound = errors.New("collaboration request not found")
	ErrRequestResolved = errors.New("collaboration request already resolved")
)

// ReceiveHandler is called when a request arrives from another user.
type ReceiveHandler func(request model.CollaborationRequest, from model.SharedUser)

// CollaborationTransport carries requests between users.
type CollaborationTransport interface {
	Send(request model.CollaborationRequest, to model.SharedUser) error
	OnReceive(handler ReceiveHandler)
}

// LoopbackTransport delivers every sent request back to this device as if the
// recipient had sent it.
type LoopbackTransport struct {
	delay     time.Duration
	afterFunc func(time.Duration, func())

	mu       sync.RWMutex
	handlers []ReceiveHandler
}

func NewLoopbackTransport(delay time.Duration) *LoopbackTransport {
	return &LoopbackTransport{delay: delay, afterFunc: afterFunc}
}

func (t *LoopbackTransport) OnReceive(handler ReceiveHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

func (t *LoopbackTransport) Send(request model.CollaborationRequest, to model.SharedUser) error {
	incoming := request
	incoming.FromUser = to
	t.afterFunc(t.delay, func() {
		t.mu.RLock()
		handlers := slices.Clone(t.handlers)
		t.mu.RUnlock()
		for _, h := range handlers {
			h(incoming, to)
		}
	})
	return nil
}

func afterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

type sharedTaskCreator interface {
	CreateShared(title string, from model.SharedUser) model.Task
}

// CollaborationService runs the invite workflow. Sent requests and received requests
// are kept apart; both copies of a request move to the same terminal status.
type CollaborationService struct {
	transport CollaborationTransport
	feed      *NotificationService
	tasks     sharedTaskCreator
	clock     Clock
	newID     func() string
	afterFunc func(time.Duration, func())
	echoDelay time.Duration

	mu       sync.RWMutex
	sent     []model.CollaborationRequest
	inbox    []model.CollaborationRequest
	incoming []func(model.CollaborationRequest)
	changed  []func()
}

func NewCollaborationService(transport CollaborationTransport, feed *NotificationService, tasks sharedTaskCreator, clock Clock) *CollaborationService {
	if clock == nil {
		clock = RealClock{}
	}
	s := &CollaborationService{
		transport: transport,
		feed:      feed,
		tasks:     tasks,
		clock:     clock,
		newID:     uuid.NewString,
		afterFunc: afterFunc,
		echoDelay: EchoDelay,
	}
	transport.OnReceive(s.receive)
	return s
}

// OnIncoming registers fn to run for every request that arrives.
func (s *CollaborationService) OnIncoming(fn func(model.CollaborationRequest)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming = append(s.incoming, fn)
}

// OnChange registers fn to run after the sent or received requests change.
func (s *CollaborationService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, fn)
}

// Send invites a user to a task.
func (s *CollaborationService) Send(task model.Task, to model.SharedUser, typ model.RequestType) (model.CollaborationRequest, error) {
	if typ == "" {
		typ = model.RequestCollaborate
	}
	req := model.CollaborationRequest{
		ID:        s.newID(),
		TaskID:    task.ID,
		TaskTitle: task.Title,
		FromUser:  model.CurrentUser,
		ToUserID:  to.ID,
		Status:    model.RequestPending,
		CreatedAt: epochMillis(s.clock.Now()),
		Type:      typ,
	}

	s.mu.Lock()
	s.sent = append(s.sent, req)
	s.mu.Unlock()

	if err := s.transport.Send(req, to); err != nil {
		s.mu.Lock()
		s.sent = slices.DeleteFunc(s.sent, func(r model.CollaborationRequest) bool { return r.ID == req.ID })
		s.mu.Unlock()
		return model.CollaborationRequest{}, fmt.Errorf("send collaboration request: %w", err)
	}

	s.feed.Append(model.Notification{
		Type:      model.NotificationTaskShared,
		Title:     "Invite Sent",
		Message:   "Collaboration invite sent to " + to.Name,
		FromUser:  &to,
		TaskTitle: task.Title,
		TaskID:    task.ID,
	})
	log.Printf("[info] collaboration invite sent request=%s task=%s to=%s", req.ID, task.ID, to.ID)
	s.notifyChanged()
	return req, nil
}

func (s *CollaborationService) receive(req model.CollaborationRequest, from model.SharedUser) {
	s.mu.Lock()
	if slices.ContainsFunc(s.inbox, func(r model.CollaborationRequest) bool { return r.ID == req.ID }) {
		s.mu.Unlock()
		return
	}
	s.inbox = append(s.inbox, req)
	incoming := slices.Clone(s.incoming)
	s.mu.Unlock()

	s.feed.Append(model.Notification{
		Type:      model.NotificationInviteReceived,
		Title:     "Collaboration Invite",
		Message:   from.Name + " invited you to collaborate",
		FromUser:  &from,
		TaskTitle: req.TaskTitle,
		TaskID:    req.TaskID,
		RequestID: req.ID,
	})
	for _, fn := range incoming {
		fn(req)
	}
	s.notifyChanged()
}

// Accept accepts a pending request and creates the shared copy of its task.
func (s *CollaborationService) Accept(id string) (model.Task, error) {
	req, err := s.resolve(id, model.RequestAccepted)
	if err != nil {
		return model.Task{}, err
	}

	task := s.tasks.CreateShared(req.TaskTitle, req.FromUser)
	s.feed.Append(model.Notification{
		Type:      model.NotificationInviteAccepted,
		Title:     "Invite Accepted! 🎉",
		Message:   fmt.Sprintf("You accepted %s's collaboration invite", req.FromUser.Name),
		FromUser:  &req.FromUser,
		TaskTitle: req.TaskTitle,
		TaskID:    req.TaskID,
	})
	s.echo(model.Notification{
		Type:      model.NotificationInviteAccepted,
		Title:     "Collaboration Accepted! 🎉",
		Message:   fmt.Sprintf("Your collaboration invite for %q was accepted", req.TaskTitle),
		TaskTitle: req.TaskTitle,
		TaskID:    req.TaskID,
	})
	log.Printf("[info] collaboration accepted request=%s shared_task=%s", id, task.ID)
	return task, nil
}

// Decline declines a pending request.
func (s *CollaborationService) Decline(id string) error {
	req, err := s.resolve(id, model.RequestDeclined)
	if err != nil {
		return err
	}

	s.feed.Append(model.Notification{
		Type:      model.NotificationInviteDeclined,
		Title:     "Invite Declined",
		Message:   fmt.Sprintf("You declined %s's collaboration invite", req.FromUser.Name),
		FromUser:  &req.FromUser,
		TaskTitle: req.TaskTitle,
		TaskID:    req.TaskID,
	})
	s.echo(model.Notification{
		Type:      model.NotificationInviteDeclined,
		Title:     "Invite Declined",
		Message:   fmt.Sprintf("Your collaboration invite for %q was declined", req.TaskTitle),
		TaskTitle: req.TaskTitle,
		TaskID:    req.TaskID,
	})
	log.Printf("[info] collaboration declined request=%s", id)
	return nil
}

// resolve moves both copies of a pending request to status and returns the
// recipient-side view of it.
func (s *CollaborationService) resolve(id string, status model.RequestStatus) (model.CollaborationRequest, error) {
	s.mu.Lock()
	inboxIdx := indexOfRequest(s.inbox, id)
	sentIdx := indexOfRequest(s.sent, id)

	var req model.CollaborationRequest
	switch {
	case inboxIdx >= 0:
		req = s.inbox[inboxIdx]
	case sentIdx >= 0:
		// Not delivered yet: the counterpart is whoever it was sent to.
		req = s.sent[sentIdx]
		if to, ok := model.FindUser(req.ToUserID); ok {
			req.FromUser = to
		}
	default:
		s.mu.Unlock()
		return model.CollaborationRequest{}, ErrRequestNotFound
	}
	if !req.IsPending() {
		s.mu.Unlock()
		return model.CollaborationRequest{}, fmt.Errorf("request %s is %s: %w", id, req.Status, ErrRequestResolved)
	}

	if inboxIdx >= 0 {
		s.inbox[inboxIdx].Status = status
	}
	if sentIdx >= 0 {
		s.sent[sentIdx].Status = status
	}
	req.Status = status
	s.mu.Unlock()

	s.notifyChanged()
	return req, nil
}

func (s *CollaborationService) echo(n model.Notification) {
	s.afterFunc(s.echoDelay, func() { s.feed.Append(n) })
}

// Pending returns received requests still awaiting an answer.
func (s *CollaborationService) Pending() []model.CollaborationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CollaborationRequest
	for _, r := range s.inbox {
		if r.IsPending() {
			out = append(out, r)
		}
	}
	return out
}

func (s *CollaborationService) Sent() []model.CollaborationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sent)
}

func (s *CollaborationService) Inbox() []model.CollaborationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.inbox)
}

// Replace installs loaded requests without notifying.
func (s *CollaborationService) Replace(sent, inbox []model.CollaborationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = slices.Clone(sent)
	s.inbox = slices.Clone(inbox)
}

func (s *CollaborationService) notifyChanged() {
	s.mu.RLock()
	changed := slices.Clone(s.changed)
	s.mu.RUnlock()
	for _, fn := range changed {
		fn()
	}
}

func indexOfRequest(items []model.CollaborationRequest, id string) int {
	return slices.IndexFunc(items, func(r model.CollaborationRequest) bool { return r.ID == id })
}
