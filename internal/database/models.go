package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id                 int
	Username           string
	EmailAddress       string
	PasswordHash       string
	Role               string
	Enabled            bool
	ResetCode          sql.NullString
	ResetCodeExpiresAt sql.NullTime
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Notification struct {
	Id          int
	RecipientId int
	Type        string
	Title       string
	Content     string
	RelatedId   sql.NullInt64
	RelatedType sql.NullString
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      sql.NullTime
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
}

type UpdatePasswordParams struct {
	UserId       int
	PasswordHash string
}

type SetResetCodeParams struct {
	UserId    int
	Code      string
	ExpiresAt time.Time
}

type CreateNotificationParams struct {
	RecipientId int
	Type        string
	Title       string
	Content     string
	RelatedId   int
	RelatedType string
}

type ListNotificationsParams struct {
	RecipientId int
	IsRead      *bool
	Type        string
	Limit       int
	Offset      int
}
