package notif

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkup/internal/dbmysql"
	"linkup/internal/notif/mocks"
	"linkup/internal/realtime"
)

func newDispatcher(ctrl *gomock.Controller) (Dispatcher, *mocks.MockNotificationRepository, *mocks.MockPusher) {
	repo := mocks.NewMockNotificationRepository(ctrl)
	pusher := mocks.NewMockPusher(ctrl)
	return NewDispatcher(repo, pusher, zerolog.Nop()), repo, pusher
}

func TestDispatcher_Set_PersistsAndPushes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, repo, pusher := newDispatcher(ctrl)

	repo.EXPECT().Set(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n *dbmysql.Notification) error {
			assert.Equal(t, uint64(2), n.RecipientID)
			assert.Equal(t, uint64(1), n.SenderID)
			assert.Equal(t, dbmysql.NotifMessage, n.Type)
			assert.Equal(t, uint64(7), n.ConversationID)
			return nil
		})
	pusher.EXPECT().SendToUser(uint64(2), realtime.EventNewNotification, NewNotificationEvent{
		RecipientID:    2,
		SenderID:       1,
		Type:           dbmysql.NotifMessage,
		ConversationID: 7,
	})

	err := d.Set(context.Background(), 2, 1, dbmysql.NotifMessage, dbmysql.EntityRef{ConversationID: 7})
	assert.NoError(t, err)
}

func TestDispatcher_Set_SuppressesSelfNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No repo or pusher calls are expected.
	d, _, _ := newDispatcher(ctrl)

	err := d.Set(context.Background(), 1, 1, dbmysql.NotifLike, dbmysql.EntityRef{PostID: 5})
	assert.NoError(t, err)
}

func TestDispatcher_Unset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, repo, _ := newDispatcher(ctrl)

	repo.EXPECT().Unset(gomock.Any(), uint64(2), uint64(1), dbmysql.NotifLike,
		dbmysql.EntityRef{PostID: 5}).Return(nil)

	err := d.Unset(context.Background(), 2, 1, dbmysql.NotifLike, dbmysql.EntityRef{PostID: 5})
	assert.NoError(t, err)

	// Self-directed unset never touches storage.
	err = d.Unset(context.Background(), 1, 1, dbmysql.NotifLike, dbmysql.EntityRef{PostID: 5})
	assert.NoError(t, err)
}

func TestDispatcher_Recent_AppliesLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, repo, _ := newDispatcher(ctrl)

	repo.EXPECT().Recent(gomock.Any(), uint64(2), recentLimit).
		Return([]*dbmysql.Notification{{ID: "n-1"}}, nil)

	notifications, err := d.Recent(context.Background(), 2)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
}
