package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkup/internal/chat/service/mocks"
	"linkup/internal/common"
	"linkup/internal/dbmysql"
	"linkup/internal/realtime"
)

type messageServiceMocks struct {
	msgRepo    *mocks.MockMessageRepository
	convRepo   *mocks.MockConversationRepository
	users      *mocks.MockUserRepository
	dispatcher *mocks.MockDispatcher
	broadcast  *mocks.MockBroadcaster
}

func newMessageService(ctrl *gomock.Controller) (MessageService, messageServiceMocks) {
	m := messageServiceMocks{
		msgRepo:    mocks.NewMockMessageRepository(ctrl),
		convRepo:   mocks.NewMockConversationRepository(ctrl),
		users:      mocks.NewMockUserRepository(ctrl),
		dispatcher: mocks.NewMockDispatcher(ctrl),
		broadcast:  mocks.NewMockBroadcaster(ctrl),
	}
	svc := NewMessageService(m.msgRepo, m.convRepo, m.users, m.dispatcher, m.broadcast)
	return svc, m
}

func assertCode(t *testing.T, err error, code common.ErrorCode) {
	t.Helper()
	var appErr *common.AppError
	if assert.Error(t, err) && assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, code, appErr.Code)
	}
}

func TestMessageService_Send(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		mockSetup func(m messageServiceMocks)
		wantCode  common.ErrorCode
	}{
		{
			name:      "empty content",
			content:   "   ",
			mockSetup: func(m messageServiceMocks) {},
			wantCode:  common.CodeValidation,
		},
		{
			name:    "not a participant",
			content: "hello",
			mockSetup: func(m messageServiceMocks) {
				m.convRepo.EXPECT().Participant(gomock.Any(), uint64(7), uint64(1)).
					Return(nil, common.AuthorizationError("you are not a participant in this conversation"))
			},
			wantCode: common.CodeAuthorization,
		},
		{
			name:    "successful send notifies and broadcasts",
			content: "  hello  ",
			mockSetup: func(m messageServiceMocks) {
				m.convRepo.EXPECT().Participant(gomock.Any(), uint64(7), uint64(1)).
					Return(&dbmysql.Participant{ConversationID: 7, UserID: 1}, nil)
				m.msgRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, msg *dbmysql.Message) error {
						assert.Equal(t, "hello", msg.Content)
						assert.WithinDuration(t, time.Now(), msg.CreatedAt, time.Second)
						msg.ID = 101
						return nil
					})
				m.convRepo.EXPECT().Touch(gomock.Any(), uint64(7), gomock.Any()).Return(nil)
				m.users.EXPECT().ByID(gomock.Any(), uint64(1)).
					Return(&dbmysql.User{UserID: 1, Name: "Alice"}, nil)
				m.convRepo.EXPECT().OtherParticipant(gomock.Any(), uint64(7), uint64(1)).
					Return(&dbmysql.Participant{ConversationID: 7, UserID: 2}, nil)
				m.dispatcher.EXPECT().Set(gomock.Any(), uint64(2), uint64(1), dbmysql.NotifMessage,
					dbmysql.EntityRef{ConversationID: 7}).Return(nil)
				m.broadcast.EXPECT().BroadcastToRoom(uint64(7), realtime.EventNewMessage, gomock.Any())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newMessageService(ctrl)
			tt.mockSetup(m)

			msg, err := svc.Send(context.Background(), 7, 1, tt.content)

			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Nil(t, msg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, uint64(101), msg.ID)
			assert.Equal(t, "hello", msg.Content)
			if assert.NotNil(t, msg.Sender) {
				assert.Equal(t, "Alice", msg.Sender.Name)
			}
		})
	}
}

func TestMessageService_Messages_ReturnsOldestFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newMessageService(ctrl)

	m.convRepo.EXPECT().Participant(gomock.Any(), uint64(7), uint64(1)).
		Return(&dbmysql.Participant{ConversationID: 7, UserID: 1}, nil)
	// Repository hands back newest-first.
	m.msgRepo.EXPECT().Page(gomock.Any(), uint64(7), 1, 50).
		Return([]*dbmysql.Message{
			{ID: 3, Content: "third"},
			{ID: 2, Content: "second"},
			{ID: 1, Content: "first"},
		}, int64(3), nil)

	page, err := svc.Messages(context.Background(), 7, 1, 0, 0)
	assert.NoError(t, err)
	if assert.Len(t, page.Messages, 3) {
		assert.Equal(t, uint64(1), page.Messages[0].ID)
		assert.Equal(t, uint64(3), page.Messages[2].ID)
	}
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, int64(1), page.Pagination.TotalPages)
}

func TestMessageService_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newMessageService(ctrl)

	m.convRepo.EXPECT().Participant(gomock.Any(), uint64(7), uint64(1)).
		Return(&dbmysql.Participant{ConversationID: 7, UserID: 1}, nil)
	m.convRepo.EXPECT().MarkRead(gomock.Any(), uint64(7), uint64(1), gomock.Any()).Return(nil)
	m.broadcast.EXPECT().BroadcastToRoom(uint64(7), realtime.EventMessagesRead,
		realtime.MessagesReadEvent{ConversationID: 7, UserID: 1})

	err := svc.MarkRead(context.Background(), 7, 1)
	assert.NoError(t, err)
}

func TestMessageService_Delete(t *testing.T) {
	tests := []struct {
		name        string
		requesterID uint64
		mockSetup   func(m messageServiceMocks)
		wantCode    common.ErrorCode
	}{
		{
			name:        "unknown message",
			requesterID: 1,
			mockSetup: func(m messageServiceMocks) {
				m.msgRepo.EXPECT().ByID(gomock.Any(), uint64(101)).
					Return(nil, common.NotFoundError("message not found"))
			},
			wantCode: common.CodeNotFound,
		},
		{
			name:        "not the sender",
			requesterID: 1,
			mockSetup: func(m messageServiceMocks) {
				m.msgRepo.EXPECT().ByID(gomock.Any(), uint64(101)).
					Return(&dbmysql.Message{ID: 101, ConversationID: 7, SenderID: 2}, nil)
			},
			wantCode: common.CodeAuthorization,
		},
		{
			name:        "sender deletes and room is told",
			requesterID: 2,
			mockSetup: func(m messageServiceMocks) {
				m.msgRepo.EXPECT().ByID(gomock.Any(), uint64(101)).
					Return(&dbmysql.Message{ID: 101, ConversationID: 7, SenderID: 2}, nil)
				m.msgRepo.EXPECT().Delete(gomock.Any(), uint64(101)).Return(nil)
				m.broadcast.EXPECT().BroadcastToRoom(uint64(7), realtime.EventMessageDeleted,
					realtime.MessageDeletedEvent{MessageID: 101, ConversationID: 7})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newMessageService(ctrl)
			tt.mockSetup(m)

			err := svc.Delete(context.Background(), 101, tt.requesterID)

			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			assert.NoError(t, err)
		})
	}
}
