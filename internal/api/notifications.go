package api

import (
	"net/http"

	"placement-portal/internal/notification"
)

type notificationRequest struct {
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Action  *actionRequest `json:"action,omitempty"`
}

type actionRequest struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

func (req notificationRequest) draft() notification.Draft {
	d := notification.Draft{
		Type:    notification.ParseType(req.Type),
		Title:   req.Title,
		Message: req.Message,
	}
	if req.Action != nil {
		d.Action = &notification.Action{Text: req.Action.Text, Link: req.Action.Link}
	}
	return d
}

type notificationsResponse struct {
	Items  []notification.Notification `json:"items"`
	Unread int                         `json:"unread"`
}

func (s *server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, notificationsResponse{
		Items:  s.portal.Notifications(),
		Unread: s.portal.UnreadCount(),
	})
}

func (s *server) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := s.portal.MarkRead(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.portal.MarkAllRead(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"marked": n})
}

func (s *server) invokeAction(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	eff, err := s.portal.InvokeAction(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, eff)
}

func (s *server) postNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.portal.PostAnnouncement(r.Context(), req.draft())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, n)
}

func (s *server) editNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req notificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.portal.EditNotification(r.Context(), id, req.draft())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}

func (s *server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := s.portal.DeleteNotification(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
