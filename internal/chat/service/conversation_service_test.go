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
)

func strPtr(s string) *string { return &s }

func acceptedPairConversation(id, low, high uint64) *dbmysql.Conversation {
	return &dbmysql.Conversation{
		ID:         id,
		UserLowID:  low,
		UserHighID: high,
		CreatedAt:  time.Now().Add(-time.Hour),
		UpdatedAt:  time.Now(),
		Participants: []dbmysql.Participant{
			{ConversationID: id, UserID: low, LastReadAt: time.Unix(0, 0),
				User: &dbmysql.User{UserID: low, Name: "Alice", Avatar: strPtr("a.png")}},
			{ConversationID: id, UserID: high, LastReadAt: time.Unix(0, 0),
				User: &dbmysql.User{UserID: high, Name: "Bob", Avatar: strPtr("b.png")}},
		},
	}
}

func TestConversationService_GetOrCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	convRepo := mocks.NewMockConversationRepository(ctrl)
	msgRepo := mocks.NewMockMessageRepository(ctrl)
	friends := mocks.NewMockFriendRepository(ctrl)
	svc := NewConversationService(convRepo, msgRepo, friends)

	tests := []struct {
		name        string
		userID      uint64
		otherUserID uint64
		mockSetup   func()
		wantCode    common.ErrorCode
		wantID      uint64
		wantOther   string
	}{
		{
			name:        "missing other user",
			userID:      1,
			otherUserID: 0,
			mockSetup:   func() {},
			wantCode:    common.CodeValidation,
		},
		{
			name:        "conversation with yourself",
			userID:      1,
			otherUserID: 1,
			mockSetup:   func() {},
			wantCode:    common.CodeValidation,
		},
		{
			name:        "not friends",
			userID:      1,
			otherUserID: 2,
			mockSetup: func() {
				friends.EXPECT().AreFriends(gomock.Any(), uint64(1), uint64(2)).Return(false, nil)
			},
			wantCode: common.CodeAuthorization,
		},
		{
			name:        "existing conversation returned",
			userID:      2,
			otherUserID: 1,
			mockSetup: func() {
				friends.EXPECT().AreFriends(gomock.Any(), uint64(2), uint64(1)).Return(true, nil)
				convRepo.EXPECT().GetOrCreate(gomock.Any(), uint64(2), uint64(1)).
					Return(acceptedPairConversation(7, 1, 2), false, nil)
			},
			wantID:    7,
			wantOther: "Alice",
		},
		{
			name:        "new conversation created",
			userID:      1,
			otherUserID: 2,
			mockSetup: func() {
				friends.EXPECT().AreFriends(gomock.Any(), uint64(1), uint64(2)).Return(true, nil)
				convRepo.EXPECT().GetOrCreate(gomock.Any(), uint64(1), uint64(2)).
					Return(acceptedPairConversation(7, 1, 2), true, nil)
			},
			wantID:    7,
			wantOther: "Bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			view, err := svc.GetOrCreate(context.Background(), tt.userID, tt.otherUserID)

			if tt.wantCode != "" {
				assert.Error(t, err)
				var appErr *common.AppError
				assert.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Nil(t, view)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantID, view.ID)
			if assert.NotNil(t, view.OtherUser) {
				assert.Equal(t, tt.wantOther, view.OtherUser.Name)
			}
		})
	}
}

// Both racing callers must converge on a single conversation id once one of
// them wins the insert.
func TestConversationService_GetOrCreate_RaceConverges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	convRepo := mocks.NewMockConversationRepository(ctrl)
	msgRepo := mocks.NewMockMessageRepository(ctrl)
	friends := mocks.NewMockFriendRepository(ctrl)
	svc := NewConversationService(convRepo, msgRepo, friends)

	friends.EXPECT().AreFriends(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
	convRepo.EXPECT().GetOrCreate(gomock.Any(), uint64(1), uint64(2)).
		Return(acceptedPairConversation(42, 1, 2), true, nil)
	convRepo.EXPECT().GetOrCreate(gomock.Any(), uint64(2), uint64(1)).
		Return(acceptedPairConversation(42, 1, 2), false, nil)

	winner, err := svc.GetOrCreate(context.Background(), 1, 2)
	assert.NoError(t, err)
	loser, err := svc.GetOrCreate(context.Background(), 2, 1)
	assert.NoError(t, err)

	assert.Equal(t, winner.ID, loser.ID)
	assert.True(t, winner.Created)
	assert.False(t, loser.Created)
}

func TestConversationService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	convRepo := mocks.NewMockConversationRepository(ctrl)
	msgRepo := mocks.NewMockMessageRepository(ctrl)
	friends := mocks.NewMockFriendRepository(ctrl)
	svc := NewConversationService(convRepo, msgRepo, friends)

	conv := acceptedPairConversation(7, 1, 2)
	readAt := time.Now().Add(-10 * time.Minute)
	conv.Participants[0].LastReadAt = readAt

	last := &dbmysql.Message{ID: 99, ConversationID: 7, SenderID: 2, Content: "hey"}

	convRepo.EXPECT().ForUser(gomock.Any(), uint64(1)).Return([]*dbmysql.Conversation{conv}, nil)
	msgRepo.EXPECT().Last(gomock.Any(), uint64(7)).Return(last, nil)
	msgRepo.EXPECT().UnreadCount(gomock.Any(), uint64(7), uint64(1), readAt).Return(int64(3), nil)

	summaries, err := svc.List(context.Background(), 1)
	assert.NoError(t, err)
	if assert.Len(t, summaries, 1) {
		assert.Equal(t, uint64(7), summaries[0].ID)
		assert.Equal(t, int64(3), summaries[0].UnreadCount)
		assert.Equal(t, "hey", summaries[0].LastMessage.Content)
		assert.Equal(t, "Bob", summaries[0].OtherUser.Name)
	}
}

func TestConversationService_List_EmptyConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	convRepo := mocks.NewMockConversationRepository(ctrl)
	msgRepo := mocks.NewMockMessageRepository(ctrl)
	friends := mocks.NewMockFriendRepository(ctrl)
	svc := NewConversationService(convRepo, msgRepo, friends)

	conv := acceptedPairConversation(7, 1, 2)
	convRepo.EXPECT().ForUser(gomock.Any(), uint64(1)).Return([]*dbmysql.Conversation{conv}, nil)
	msgRepo.EXPECT().Last(gomock.Any(), uint64(7)).Return(nil, nil)
	msgRepo.EXPECT().UnreadCount(gomock.Any(), uint64(7), uint64(1), gomock.Any()).Return(int64(0), nil)

	summaries, err := svc.List(context.Background(), 1)
	assert.NoError(t, err)
	if assert.Len(t, summaries, 1) {
		assert.Nil(t, summaries[0].LastMessage)
		assert.Zero(t, summaries[0].UnreadCount)
	}
}
