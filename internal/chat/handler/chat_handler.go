package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"linkup/internal/chat/service"
	"linkup/internal/common"
)

// ChatHandler wires the REST surface onto the chat services.
type ChatHandler struct {
	conversations service.ConversationService
	messages      service.MessageService
	validate      *validator.Validate
}

func NewChatHandler(conversations service.ConversationService, messages service.MessageService) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		validate:      validator.New(),
	}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat/conversations", h.listConversations).Methods("GET")
	r.HandleFunc("/chat/conversations", h.getOrCreateConversation).Methods("POST")
	r.HandleFunc("/chat/conversations/{conversationId}/messages", h.getMessages).Methods("GET")
	r.HandleFunc("/chat/conversations/{conversationId}/messages", h.sendMessage).Methods("POST")
	r.HandleFunc("/chat/conversations/{conversationId}/read", h.markAsRead).Methods("PUT")
	r.HandleFunc("/chat/messages/{messageId}", h.deleteMessage).Methods("DELETE")
}

type createConversationRequest struct {
	OtherUserID uint64 `json:"other_user_id" validate:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *ChatHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	summaries, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, summaries)
}

func (h *ChatHandler) getOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationError("cannot parse JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.WriteError(w, common.ValidationError("other user ID is required"))
		return
	}

	view, err := h.conversations.GetOrCreate(r.Context(), userID, req.OtherUserID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if view.Created {
		status = http.StatusCreated
	}
	common.WriteJSON(w, status, view)
}

func (h *ChatHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.messages.Messages(r.Context(), conversationID, userID, page, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationError("cannot parse JSON"))
		return
	}

	msg, err := h.messages.Send(r.Context(), conversationID, userID, req.Content)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) markAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.messages.MarkRead(r.Context(), conversationID, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ChatHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.NewError(common.CodeUnauthorized, "user not authenticated"))
		return
	}

	messageID, err := pathID(r, "messageId")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.messages.Delete(r.Context(), messageID, userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, common.ValidationError("invalid " + name)
	}
	return id, nil
}
