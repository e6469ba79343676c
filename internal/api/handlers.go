package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/campusqa/portal/internal/database"
	"github.com/campusqa/portal/internal/notify"
	"github.com/campusqa/portal/internal/stats"
	"github.com/gorilla/websocket"
)

type SystemNotificationRequest struct {
	RecipientId int    `json:"recipient_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

func (s *PortalApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *PortalApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.ListNotificationsParams{RecipientId: ident.Id}

	if isReadStr := r.URL.Query().Get("is_read"); isReadStr != "" {
		isRead, err := strconv.ParseBool(isReadStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		params.IsRead = &isRead
	}

	params.Type = r.URL.Query().Get("type")

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		params.Limit = limit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		params.Offset = offset
	}

	notifications, err := s.notifier.List(params)
	if err != nil {
		s.log.Println("list notifications:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, notifications)
}

func (s *PortalApp) unreadCount(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	count, err := s.notifier.UnreadCount(ident.Id)
	if err != nil {
		s.log.Println("unread count:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

func (s *PortalApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notificationId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.notifier.MarkRead(notificationId, ident.Id); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, notify.ErrNotificationNotFound):
			errResp = NewNotFoundError()
		case errors.Is(err, notify.ErrNotRecipient):
			errResp = NewForbiddenError()
		default:
			s.log.Println("mark notification read:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *PortalApp) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.notifier.MarkAllRead(ident.Id); err != nil {
		s.log.Println("mark all notifications read:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *PortalApp) createSystemNotification(w http.ResponseWriter, r *http.Request) {
	var req SystemNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.RecipientId == 0 || req.Title == "" || req.Content == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notification, err := s.notifier.NotifySystem(req.RecipientId, req.Title, req.Content)
	if err != nil {
		s.log.Println("create system notification:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, notification)
}

// serveWs upgrades the request to a websocket and registers it as the
// caller's notification channel. The identity comes from the verified
// token, never from the URL.
func (s *PortalApp) serveWs(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := notify.NewClient(ident, conn, s.registry, s.log, s.stats)

	s.registry.Register(ident.Id, client)
	s.stats.Incr(stats.ActiveConnections)
	client.QueueMessage(notify.NewConnectedMessage())

	go client.Write()
	go client.Read()
}
