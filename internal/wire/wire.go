//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"linkup/internal/chat/handler"
	"linkup/internal/chat/repository"
	"linkup/internal/chat/service"
	"linkup/internal/dbmysql"
	"linkup/internal/notif"
	"linkup/internal/realtime"
	"linkup/internal/user"
)

func InitializeApplication() (*Application, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvideDatabase,
		realtime.NewPresenceTracker,
		realtime.NewGateway,
		dbmysql.NewNotificationRepository,
		repository.NewConversationRepository,
		repository.NewMessageRepository,
		user.NewFriendRepository,
		user.NewUserRepository,
		notif.NewDispatcher,
		service.NewConversationService,
		service.NewMessageService,
		handler.NewChatHandler,
		notif.NewNotificationHandler,
		wire.Bind(new(notif.Pusher), new(*realtime.Gateway)),
		wire.Bind(new(service.Broadcaster), new(*realtime.Gateway)),
		wire.Bind(new(realtime.Membership), new(repository.ConversationRepository)),
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil, nil
}
