package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockPortalRepository struct {
	mock.Mock
}

func (m *MockPortalRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) UpdatePassword(params UpdatePasswordParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockPortalRepository) SetResetCode(params SetResetCodeParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockPortalRepository) GetAccountByResetCode(code string) (User, error) {
	args := m.Called(code)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	args := m.Called(params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockPortalRepository) GetNotificationById(id int) (Notification, error) {
	args := m.Called(id)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockPortalRepository) MarkNotificationRead(id int, readAt time.Time) (bool, error) {
	args := m.Called(id, readAt)
	return args.Bool(0), args.Error(1)
}
func (m *MockPortalRepository) MarkAllNotificationsRead(recipientId int, readAt time.Time) error {
	args := m.Called(recipientId, readAt)
	return args.Error(0)
}
func (m *MockPortalRepository) CountUnreadNotifications(recipientId int) (int, error) {
	args := m.Called(recipientId)
	return args.Int(0), args.Error(1)
}
func (m *MockPortalRepository) ListNotifications(params ListNotificationsParams) ([]Notification, error) {
	args := m.Called(params)
	if notifications, ok := args.Get(0).([]Notification); ok {
		return notifications, args.Error(1)
	}
	return nil, args.Error(1)
}
