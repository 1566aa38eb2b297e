package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"linkup/internal/chat/handler/mocks"
	"linkup/internal/chat/service"
	"linkup/internal/common"
	"linkup/internal/dbmysql"
)

func newTestRouter(h *ChatHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router *mux.Router, method, path string, body interface{}, userID uint64) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req = req.WithContext(common.ContextWithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatHandler_GetOrCreateConversation(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		mockSetup  func(conv *mocks.MockConversationService)
		wantStatus int
	}{
		{
			name:       "missing other user id",
			body:       map[string]uint64{},
			mockSetup:  func(conv *mocks.MockConversationService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not friends",
			body: map[string]uint64{"other_user_id": 2},
			mockSetup: func(conv *mocks.MockConversationService) {
				conv.EXPECT().GetOrCreate(gomock.Any(), uint64(1), uint64(2)).
					Return(nil, common.AuthorizationError("you can only chat with friends"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "existing conversation",
			body: map[string]uint64{"other_user_id": 2},
			mockSetup: func(conv *mocks.MockConversationService) {
				conv.EXPECT().GetOrCreate(gomock.Any(), uint64(1), uint64(2)).
					Return(&service.ConversationView{ID: 7}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "freshly created conversation",
			body: map[string]uint64{"other_user_id": 2},
			mockSetup: func(conv *mocks.MockConversationService) {
				conv.EXPECT().GetOrCreate(gomock.Any(), uint64(1), uint64(2)).
					Return(&service.ConversationView{ID: 7, Created: true}, nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			conv := mocks.NewMockConversationService(ctrl)
			msgs := mocks.NewMockMessageService(ctrl)
			tt.mockSetup(conv)

			router := newTestRouter(NewChatHandler(conv, msgs))
			rec := doRequest(t, router, "POST", "/chat/conversations", tt.body, 1)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestChatHandler_ListConversations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)
	conv.EXPECT().List(gomock.Any(), uint64(1)).
		Return([]*service.ConversationSummary{{ID: 7, UnreadCount: 3}}, nil)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "GET", "/chat/conversations", nil, 1)

	assert.Equal(t, http.StatusOK, rec.Code)

	var summaries []*service.ConversationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	if assert.Len(t, summaries, 1) {
		assert.Equal(t, uint64(7), summaries[0].ID)
		assert.Equal(t, int64(3), summaries[0].UnreadCount)
	}
}

func TestChatHandler_ListConversations_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "GET", "/chat/conversations", nil, 0)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_SendMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)
	msgs.EXPECT().Send(gomock.Any(), uint64(7), uint64(1), "hello").
		Return(&dbmysql.Message{ID: 101, ConversationID: 7, SenderID: 1, Content: "hello"}, nil)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "POST", "/chat/conversations/7/messages",
		map[string]string{"content": "hello"}, 1)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var msg dbmysql.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, uint64(101), msg.ID)
}

func TestChatHandler_SendMessage_BadConversationID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "POST", "/chat/conversations/0/messages",
		map[string]string{"content": "hello"}, 1)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_GetMessages_ForwardsPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)
	msgs.EXPECT().Messages(gomock.Any(), uint64(7), uint64(1), 2, 10).
		Return(&service.MessagePage{
			Messages:   []*dbmysql.Message{{ID: 11}},
			Pagination: service.Pagination{Page: 2, Limit: 10, Total: 11, TotalPages: 2},
		}, nil)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "GET", "/chat/conversations/7/messages?page=2&limit=10", nil, 1)

	assert.Equal(t, http.StatusOK, rec.Code)

	var page service.MessagePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Len(t, page.Messages, 1)
}

func TestChatHandler_GetMessages_NotParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)
	msgs.EXPECT().Messages(gomock.Any(), uint64(7), uint64(3), 0, 0).
		Return(nil, common.AuthorizationError("you are not a participant in this conversation"))

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "GET", "/chat/conversations/7/messages", nil, 3)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatHandler_MarkAsRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conv := mocks.NewMockConversationService(ctrl)
	msgs := mocks.NewMockMessageService(ctrl)
	msgs.EXPECT().MarkRead(gomock.Any(), uint64(7), uint64(1)).Return(nil)

	router := newTestRouter(NewChatHandler(conv, msgs))
	rec := doRequest(t, router, "PUT", "/chat/conversations/7/read", nil, 1)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatHandler_DeleteMessage(t *testing.T) {
	tests := []struct {
		name       string
		mockSetup  func(msgs *mocks.MockMessageService)
		wantStatus int
	}{
		{
			name: "unknown message",
			mockSetup: func(msgs *mocks.MockMessageService) {
				msgs.EXPECT().Delete(gomock.Any(), uint64(101), uint64(1)).
					Return(common.NotFoundError("message not found"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "not the sender",
			mockSetup: func(msgs *mocks.MockMessageService) {
				msgs.EXPECT().Delete(gomock.Any(), uint64(101), uint64(1)).
					Return(common.AuthorizationError("you can only delete your own messages"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "deleted",
			mockSetup: func(msgs *mocks.MockMessageService) {
				msgs.EXPECT().Delete(gomock.Any(), uint64(101), uint64(1)).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			conv := mocks.NewMockConversationService(ctrl)
			msgs := mocks.NewMockMessageService(ctrl)
			tt.mockSetup(msgs)

			router := newTestRouter(NewChatHandler(conv, msgs))
			rec := doRequest(t, router, "DELETE", "/chat/messages/101", nil, 1)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
