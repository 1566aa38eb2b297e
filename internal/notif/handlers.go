package notif

import (
	"net/http"

	"github.com/gorilla/mux"

	"linkup/internal/common"
)

// NotificationHandler exposes the notification feed over REST.
type NotificationHandler struct {
	dispatcher Dispatcher
}

func NewNotificationHandler(dispatcher Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.list).Methods("GET")
	r.HandleFunc("/notifications/read", h.markAllRead).Methods("PUT")
	r.HandleFunc("/notifications/{id}/read", h.markOneRead).Methods("PUT")
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	notifications, err := h.dispatcher.Recent(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]interface{}{"notifications": notifications},
	})
}

func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	if err := h.dispatcher.MarkAllRead(r.Context(), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *NotificationHandler) markOneRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		common.WriteError(w, common.ValidationError("notification id is required"))
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), id, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
