package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/smarthire/internal/domain/model"
)

// NotificationDependencies defines the notification operations the handlers use.
type NotificationDependencies interface {
	Notifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// NotificationsHandler handles notification requests.
type NotificationsHandler struct {
	deps NotificationDependencies
	rs   *responder
}

func newNotificationsHandler(deps NotificationDependencies, rs *responder) *NotificationsHandler {
	return &NotificationsHandler{deps: deps, rs: rs}
}

// HandleList handles GET /api/notifications requests. ?unread=true limits
// the list to unread notifications.
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_notifications"
	unread := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		unread = v
	}

	out, err := h.deps.Notifications(r.Context(), unread)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMarkRead handles POST /api/notifications/{id}/read requests.
func (h *NotificationsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	const op = "api.mark_notification_read"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	if err := h.deps.MarkNotificationRead(r.Context(), id); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{ID: id, Read: true})
}
