package database

import "time"

type PortalRepository interface {
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdatePassword(params UpdatePasswordParams) error
	SetResetCode(params SetResetCodeParams) error
	GetAccountByResetCode(code string) (User, error)
	CreateNotification(params CreateNotificationParams) (Notification, error)
	GetNotificationById(id int) (Notification, error)
	MarkNotificationRead(id int, readAt time.Time) (bool, error)
	MarkAllNotificationsRead(recipientId int, readAt time.Time) error
	CountUnreadNotifications(recipientId int) (int, error)
	ListNotifications(params ListNotificationsParams) ([]Notification, error)
}
