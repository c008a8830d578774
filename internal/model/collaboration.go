package model

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

type RequestType string

const (
	// RequestCollaborate lets the recipient edit the task.
	RequestCollaborate RequestType = "collaborate"
	// RequestInform shares the task view-only.
	RequestInform RequestType = "inform"
)

// CollaborationRequest is an offer to share a task with another user.
// Status moves from pending to accepted or declined exactly once.
type CollaborationRequest struct {
	ID        string        `json:"id"`
	TaskID    string        `json:"taskId"`
	TaskTitle string        `json:"taskTitle"`
	FromUser  SharedUser    `json:"fromUser"`
	ToUserID  string        `json:"toUserId"`
	Status    RequestStatus `json:"status"`
	CreatedAt int64         `json:"createdAt"`
	Type      RequestType   `json:"type"`
}

func (r CollaborationRequest) IsPending() bool {
	return r.Status == RequestPending
}

type NotificationType string

const (
	NotificationInviteReceived NotificationType = "invite_received"
	NotificationInviteAccepted NotificationType = "invite_accepted"
	NotificationInviteDeclined NotificationType = "invite_declined"
	NotificationTaskShared     NotificationType = "task_shared"
)

// Notification is one entry of the activity feed. Only IsRead changes after creation.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	FromUser  *SharedUser      `json:"fromUser,omitempty"`
	TaskTitle string           `json:"taskTitle,omitempty"`
	TaskID    string           `json:"taskId,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
	CreatedAt int64            `json:"createdAt"`
	IsRead    bool             `json:"isRead"`
}
