package notify

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/campusqa/portal/internal/database"
	"github.com/campusqa/portal/internal/stats"
	"github.com/campusqa/portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, db *database.MockPortalRepository, sp *stats.MockStatsUpdater) (*Service, *Registry) {
	t.Helper()
	registry := NewRegistry()
	return NewService(testutil.TestLogger(t), db, registry, sp), registry
}

func TestNotify_RecipientOffline(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.NotificationsPersisted).Return()

	params := NotifyParams{
		RecipientId: 42,
		Type:        "ANSWER_REPLY",
		Title:       "Your question has a new answer",
		Content:     "body",
		RelatedId:   7,
		RelatedType: "QUESTION",
	}

	db.On("CreateNotification", database.CreateNotificationParams{
		RecipientId: 42,
		Type:        "ANSWER_REPLY",
		Title:       "Your question has a new answer",
		Content:     "body",
		RelatedId:   7,
		RelatedType: "QUESTION",
	}).Return(database.Notification{
		Id:          1,
		RecipientId: 42,
		Type:        "ANSWER_REPLY",
		Title:       "Your question has a new answer",
		Content:     "body",
		RelatedId:   sql.NullInt64{Int64: 7, Valid: true},
		RelatedType: sql.NullString{String: "QUESTION", Valid: true},
		CreatedAt:   time.Now().UTC(),
	}, nil)

	svc, _ := newTestService(t, db, sp)

	notification, err := svc.Notify(params)
	require.NoError(t, err, "expected Notify to succeed with no presence entry")
	assert.Equal(t, 1, notification.Id, "expected the persisted record to be returned")
	assert.Equal(t, 42, notification.RecipientId)
	assert.False(t, notification.IsRead, "expected the record to start unread")
	assert.Equal(t, 7, notification.RelatedId)

	db.AssertExpectations(t)
	sp.AssertNotCalled(t, "Incr", stats.NotificationsPushed)
	sp.AssertNotCalled(t, "Incr", stats.PushFailures)
}

func TestNotify_RecipientOnline(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.NotificationsPersisted).Return()
	sp.On("Incr", stats.NotificationsPushed).Return()

	db.On("CreateNotification", mock.AnythingOfType("database.CreateNotificationParams")).
		Return(database.Notification{
			Id:          5,
			RecipientId: 42,
			Type:        "SYSTEM",
			Title:       "maintenance",
			Content:     "tonight",
			CreatedAt:   time.Now().UTC(),
		}, nil)

	svc, registry := newTestService(t, db, sp)

	c := &Client{
		send: make(chan *ServerMessage, 1),
		log:  testutil.TestLogger(t),
	}
	registry.Register(42, c)

	_, err := svc.Notify(NotifyParams{RecipientId: 42, Type: "SYSTEM", Title: "maintenance", Content: "tonight"})
	require.NoError(t, err, "expected Notify to succeed")

	select {
	case msg := <-c.send:
		require.NotNil(t, msg.Notification, "expected a notification payload")
		assert.Equal(t, MessageTypeNotification, msg.Type)
		assert.Equal(t, 5, msg.Notification.Id, "expected the persisted record to be pushed")
	default:
		t.Error("expected a push on the recipient's channel, but none was queued")
	}

	sp.AssertCalled(t, "Incr", stats.NotificationsPushed)
}

func TestNotify_PushFailureDoesNotFailCall(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.NotificationsPersisted).Return()
	sp.On("Incr", stats.PushFailures).Return()

	db.On("CreateNotification", mock.AnythingOfType("database.CreateNotificationParams")).
		Return(database.Notification{Id: 9, RecipientId: 42, Type: "SYSTEM", CreatedAt: time.Now().UTC()}, nil)

	svc, registry := newTestService(t, db, sp)

	// an unbuffered, undrained channel makes every push attempt fail
	c := &Client{
		send: make(chan *ServerMessage),
		log:  testutil.TestLogger(t),
	}
	registry.Register(42, c)

	notification, err := svc.Notify(NotifyParams{RecipientId: 42, Type: "SYSTEM"})
	require.NoError(t, err, "expected Notify to succeed despite the push failure")
	assert.Equal(t, 9, notification.Id, "expected the durable record to be returned")

	sp.AssertCalled(t, "Incr", stats.PushFailures)
	sp.AssertNotCalled(t, "Incr", stats.NotificationsPushed)
}

func TestNotify_PersistFailure(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}

	db.On("CreateNotification", mock.AnythingOfType("database.CreateNotificationParams")).
		Return(database.Notification{}, errors.New("connection refused"))

	svc, registry := newTestService(t, db, sp)

	c := &Client{
		send: make(chan *ServerMessage, 1),
		log:  testutil.TestLogger(t),
	}
	registry.Register(42, c)

	_, err := svc.Notify(NotifyParams{RecipientId: 42, Type: "SYSTEM"})
	require.Error(t, err, "expected Notify to fail when persistence fails")

	select {
	case <-c.send:
		t.Error("expected no push attempt after a failed persist")
	default:
	}

	sp.AssertNotCalled(t, "Incr", stats.NotificationsPersisted)
}

func TestNotifyAnswerReply(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}
	sp.On("Incr", stats.NotificationsPersisted).Return()

	db.On("GetAccountById", 42).Return(database.User{Id: 42, Username: "alice", Role: "STUDENT"}, nil)
	db.On("GetAccountById", 77).Return(database.User{Id: 77, Username: "prof-bob", Role: "TEACHER"}, nil)
	db.On("CreateNotification", mock.MatchedBy(func(params database.CreateNotificationParams) bool {
		return params.RecipientId == 42 &&
			params.Type == "ANSWER_REPLY" &&
			params.RelatedId == 7 &&
			params.RelatedType == "QUESTION" &&
			params.Content == `alice, your question "How do goroutines work?" was answered by prof-bob`
	})).Return(database.Notification{Id: 3, RecipientId: 42, Type: "ANSWER_REPLY", CreatedAt: time.Now().UTC()}, nil)

	svc, _ := newTestService(t, db, sp)

	_, err := svc.NotifyAnswerReply(42, 77, 7, "How do goroutines work?")
	require.NoError(t, err, "expected NotifyAnswerReply to succeed")
	db.AssertExpectations(t)
}

func TestNotifyAnswerReply_UnknownStudent(t *testing.T) {
	db := &database.MockPortalRepository{}
	sp := &stats.MockStatsUpdater{}

	db.On("GetAccountById", 42).Return(database.User{}, sql.ErrNoRows)

	svc, _ := newTestService(t, db, sp)

	_, err := svc.NotifyAnswerReply(42, 77, 7, "title")
	assert.Error(t, err, "expected an error when the recipient account is missing")
	db.AssertNotCalled(t, "CreateNotification", mock.Anything)
}

func TestMarkRead(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		db.On("GetNotificationById", 3).Return(database.Notification{Id: 3, RecipientId: 42}, nil)
		db.On("MarkNotificationRead", 3, mock.AnythingOfType("time.Time")).Return(true, nil)

		svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

		err := svc.MarkRead(3, 42)
		assert.NoError(t, err, "expected MarkRead to succeed for the recipient")
		db.AssertExpectations(t)
	})

	t.Run("already read is a no-op", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		db.On("GetNotificationById", 3).Return(database.Notification{Id: 3, RecipientId: 42, IsRead: true}, nil)
		db.On("MarkNotificationRead", 3, mock.AnythingOfType("time.Time")).Return(false, nil)

		svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

		err := svc.MarkRead(3, 42)
		assert.NoError(t, err, "expected marking an already-read notification to succeed silently")
	})

	t.Run("wrong recipient", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		db.On("GetNotificationById", 3).Return(database.Notification{Id: 3, RecipientId: 42}, nil)

		svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

		err := svc.MarkRead(3, 77)
		assert.ErrorIs(t, err, ErrNotRecipient, "expected ErrNotRecipient for another user's notification")
		db.AssertNotCalled(t, "MarkNotificationRead", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		db.On("GetNotificationById", 3).Return(database.Notification{}, sql.ErrNoRows)

		svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

		err := svc.MarkRead(3, 42)
		assert.ErrorIs(t, err, ErrNotificationNotFound, "expected ErrNotificationNotFound")
	})
}

func TestMarkAllRead(t *testing.T) {
	db := &database.MockPortalRepository{}
	db.On("MarkAllNotificationsRead", 42, mock.AnythingOfType("time.Time")).Return(nil)

	svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

	err := svc.MarkAllRead(42)
	assert.NoError(t, err, "expected MarkAllRead to succeed")
	db.AssertExpectations(t)
}

func TestUnreadCount(t *testing.T) {
	db := &database.MockPortalRepository{}
	db.On("CountUnreadNotifications", 42).Return(3, nil)

	svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

	count, err := svc.UnreadCount(42)
	assert.NoError(t, err, "expected UnreadCount to succeed")
	assert.Equal(t, 3, count, "expected the persisted unread count")
}

func TestList(t *testing.T) {
	db := &database.MockPortalRepository{}
	readAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	db.On("ListNotifications", database.ListNotificationsParams{RecipientId: 42, Limit: 10}).
		Return([]database.Notification{
			{Id: 2, RecipientId: 42, Type: "SYSTEM", IsRead: true, ReadAt: sql.NullTime{Time: readAt, Valid: true}},
			{Id: 1, RecipientId: 42, Type: "ANSWER_REPLY", RelatedId: sql.NullInt64{Int64: 7, Valid: true}},
		}, nil)

	svc, _ := newTestService(t, db, &stats.MockStatsUpdater{})

	notifications, err := svc.List(database.ListNotificationsParams{RecipientId: 42, Limit: 10})
	require.NoError(t, err, "expected List to succeed")
	require.Len(t, notifications, 2, "expected two notifications")
	assert.True(t, notifications[0].IsRead)
	require.NotNil(t, notifications[0].ReadAt, "expected read_at to be mapped")
	assert.Equal(t, readAt, *notifications[0].ReadAt)
	assert.Equal(t, 7, notifications[1].RelatedId, "expected related id to be mapped")
}
