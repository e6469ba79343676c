package notify

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campusqa/portal/internal/database"
	"github.com/campusqa/portal/internal/stats"
	"github.com/campusqa/portal/internal/types"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("requester is not the notification recipient")
)

// Service implements the durable-record-plus-best-effort-push protocol:
// every notification is persisted first, and only then pushed to the
// recipient's live channel if one is registered. A failed or skipped
// push never affects the persisted record.
type Service struct {
	log      *log.Logger
	db       database.PortalRepository
	registry *Registry
	stats    stats.StatsProvider
}

func NewService(logger *log.Logger, db database.PortalRepository, registry *Registry, sp stats.StatsProvider) *Service {
	return &Service{
		log:      logger,
		db:       db,
		registry: registry,
		stats:    sp,
	}
}

type NotifyParams struct {
	RecipientId int
	Type        string
	Title       string
	Content     string
	RelatedId   int
	RelatedType string
}

// Notify persists a notification record and attempts delivery over the
// recipient's live channel. Persistence failure fails the call; push
// failure is logged and swallowed because the stored record is the
// source of truth.
func (s *Service) Notify(params NotifyParams) (types.Notification, error) {
	dbNotification, err := s.db.CreateNotification(database.CreateNotificationParams{
		RecipientId: params.RecipientId,
		Type:        params.Type,
		Title:       params.Title,
		Content:     params.Content,
		RelatedId:   params.RelatedId,
		RelatedType: params.RelatedType,
	})
	if err != nil {
		return types.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	s.stats.Incr(stats.NotificationsPersisted)

	notification := toApiNotification(dbNotification)

	client, ok := s.registry.Lookup(params.RecipientId)
	if !ok {
		return notification, nil
	}

	if client.QueueMessage(newNotificationMessage(notification)) {
		s.stats.Incr(stats.NotificationsPushed)
	} else {
		s.log.Printf("push failed for notification %d to user %d", notification.Id, params.RecipientId)
		s.stats.Incr(stats.PushFailures)
	}

	return notification, nil
}

// NotifyAnswerReply tells a student their question was answered,
// addressing both parties by display name.
func (s *Service) NotifyAnswerReply(studentId, teacherId, questionId int, questionTitle string) (types.Notification, error) {
	student, err := s.db.GetAccountById(studentId)
	if err != nil {
		return types.Notification{}, fmt.Errorf("load student %d: %w", studentId, err)
	}

	teacher, err := s.db.GetAccountById(teacherId)
	if err != nil {
		return types.Notification{}, fmt.Errorf("load teacher %d: %w", teacherId, err)
	}

	return s.Notify(NotifyParams{
		RecipientId: studentId,
		Type:        types.NotificationTypeAnswerReply,
		Title:       "Your question has a new answer",
		Content:     fmt.Sprintf("%s, your question %q was answered by %s", student.Username, questionTitle, teacher.Username),
		RelatedId:   questionId,
		RelatedType: "QUESTION",
	})
}

// NotifyNewQuestion tells a teacher a question was asked in their course.
func (s *Service) NotifyNewQuestion(teacherId, studentId, questionId int, questionTitle, courseName string) (types.Notification, error) {
	student, err := s.db.GetAccountById(studentId)
	if err != nil {
		return types.Notification{}, fmt.Errorf("load student %d: %w", studentId, err)
	}

	return s.Notify(NotifyParams{
		RecipientId: teacherId,
		Type:        types.NotificationTypeNewQuestion,
		Title:       "New question in your course",
		Content:     fmt.Sprintf("Student %s asked a new question in course %q: %s", student.Username, courseName, questionTitle),
		RelatedId:   questionId,
		RelatedType: "QUESTION",
	})
}

// NotifyResourceAudit tells an uploader the outcome of a resource review.
func (s *Service) NotifyResourceAudit(ownerId, resourceId int, resourceTitle string, approved bool) (types.Notification, error) {
	title := "Resource approved"
	content := fmt.Sprintf("Your resource %q passed review and is now published", resourceTitle)
	if !approved {
		title = "Resource rejected"
		content = fmt.Sprintf("Your resource %q did not pass review", resourceTitle)
	}

	return s.Notify(NotifyParams{
		RecipientId: ownerId,
		Type:        types.NotificationTypeResourceAudit,
		Title:       title,
		Content:     content,
		RelatedId:   resourceId,
		RelatedType: "RESOURCE",
	})
}

// NotifySystem delivers an administrative announcement to one user.
func (s *Service) NotifySystem(recipientId int, title, content string) (types.Notification, error) {
	return s.Notify(NotifyParams{
		RecipientId: recipientId,
		Type:        types.NotificationTypeSystem,
		Title:       title,
		Content:     content,
	})
}

// MarkRead transitions a notification to read on behalf of requesterId.
// Only the recipient may mark their notification; marking an already
// read notification is a silent no-op and the first read_at stamp wins.
func (s *Service) MarkRead(notificationId, requesterId int) error {
	notification, err := s.db.GetNotificationById(notificationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("load notification %d: %w", notificationId, err)
	}

	if notification.RecipientId != requesterId {
		return ErrNotRecipient
	}

	if _, err := s.db.MarkNotificationRead(notificationId, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification %d read: %w", notificationId, err)
	}

	return nil
}

func (s *Service) MarkAllRead(recipientId int) error {
	if err := s.db.MarkAllNotificationsRead(recipientId, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark all read for user %d: %w", recipientId, err)
	}

	return nil
}

func (s *Service) UnreadCount(recipientId int) (int, error) {
	return s.db.CountUnreadNotifications(recipientId)
}

func (s *Service) List(params database.ListNotificationsParams) ([]types.Notification, error) {
	dbNotifications, err := s.db.ListNotifications(params)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", params.RecipientId, err)
	}

	notifications := make([]types.Notification, 0, len(dbNotifications))
	for _, n := range dbNotifications {
		notifications = append(notifications, toApiNotification(n))
	}

	return notifications, nil
}

func toApiNotification(n database.Notification) types.Notification {
	notification := types.Notification{
		Id:          n.Id,
		RecipientId: n.RecipientId,
		Type:        n.Type,
		Title:       n.Title,
		Content:     n.Content,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}

	if n.RelatedId.Valid {
		notification.RelatedId = int(n.RelatedId.Int64)
	}
	if n.RelatedType.Valid {
		notification.RelatedType = n.RelatedType.String
	}
	if n.ReadAt.Valid {
		readAt := n.ReadAt.Time
		notification.ReadAt = &readAt
	}

	return notification
}
