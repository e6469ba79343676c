package notify

import (
	"time"

	"github.com/campusqa/portal/internal/types"
)

const (
	MessageTypeConnected    = "connected"
	MessageTypeNotification = "notification"
)

// ServerMessage is the envelope pushed over a notification channel.
type ServerMessage struct {
	Type         string              `json:"type"`
	Timestamp    time.Time           `json:"timestamp"`
	Notification *types.Notification `json:"notification,omitempty"`
}

func NewConnectedMessage() *ServerMessage {
	return &ServerMessage{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().UTC(),
	}
}

func newNotificationMessage(n types.Notification) *ServerMessage {
	return &ServerMessage{
		Type:         MessageTypeNotification,
		Timestamp:    time.Now().UTC(),
		Notification: &n,
	}
}
