package types

import (
	"time"
)

const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

const (
	NotificationTypeAnswerReply   = "ANSWER_REPLY"
	NotificationTypeNewQuestion   = "NEW_QUESTION"
	NotificationTypeResourceAudit = "RESOURCE_AUDIT"
	NotificationTypeSystem        = "SYSTEM"
)

// ValidRole reports whether role is one of the three portal roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         string    `json:"role"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Notification struct {
	Id          int        `json:"id"`
	RecipientId int        `json:"recipient_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	RelatedId   int        `json:"related_id,omitempty"`
	RelatedType string     `json:"related_type,omitempty"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
