package service

import (
	"context"
	"time"

	"linkup/internal/chat/repository"
	"linkup/internal/common"
	"linkup/internal/dbmysql"
	"linkup/internal/user"
)

// Broadcaster is the fan-out seam the services push room events through; the
// realtime gateway implements it. Delivery is fire-and-forget.
type Broadcaster interface {
	BroadcastToRoom(conversationID uint64, event string, payload interface{})
}

// ConversationView is the response shape for get-or-create.
type ConversationView struct {
	ID        uint64                 `json:"id"`
	OtherUser *dbmysql.PublicProfile `json:"other_user"`
	CreatedAt time.Time              `json:"created_at"`
	Created   bool                   `json:"-"`
}

// ConversationSummary is one row of the caller's conversation list.
type ConversationSummary struct {
	ID          uint64                 `json:"id"`
	OtherUser   *dbmysql.PublicProfile `json:"other_user"`
	LastMessage *dbmysql.Message       `json:"last_message"`
	UnreadCount int64                  `json:"unread_count"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type ConversationService interface {
	// GetOrCreate requires the two users to be distinct, mutually accepted
	// friends. Concurrent calls for one pair converge on a single
	// conversation.
	GetOrCreate(ctx context.Context, userID, otherUserID uint64) (*ConversationView, error)
	List(ctx context.Context, userID uint64) ([]*ConversationSummary, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	friends  user.FriendRepository
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	friends user.FriendRepository,
) ConversationService {
	return &conversationService{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		friends:  friends,
	}
}

func (s *conversationService) GetOrCreate(ctx context.Context, userID, otherUserID uint64) (*ConversationView, error) {
	if otherUserID == 0 {
		return nil, common.ValidationError("other user ID is required")
	}
	if userID == otherUserID {
		return nil, common.ValidationError("cannot create conversation with yourself")
	}

	accepted, err := s.friends.AreFriends(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, common.AuthorizationError("you can only chat with friends")
	}

	conv, created, err := s.convRepo.GetOrCreate(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	view := &ConversationView{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		Created:   created,
	}
	for i := range conv.Participants {
		p := &conv.Participants[i]
		if p.UserID != userID && p.User != nil {
			view.OtherUser = p.User.Public()
		}
	}
	return view, nil
}

func (s *conversationService) List(ctx context.Context, userID uint64) ([]*ConversationSummary, error) {
	convs, err := s.convRepo.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := &ConversationSummary{
			ID:        conv.ID,
			UpdatedAt: conv.UpdatedAt,
		}

		lastReadAt := time.Unix(0, 0)
		for i := range conv.Participants {
			p := &conv.Participants[i]
			if p.UserID == userID {
				lastReadAt = p.LastReadAt
			} else if p.User != nil {
				summary.OtherUser = p.User.Public()
			}
		}

		last, err := s.msgRepo.Last(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		summary.LastMessage = last

		// Derived on every read, never cached.
		unread, err := s.msgRepo.UnreadCount(ctx, conv.ID, userID, lastReadAt)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = unread

		summaries = append(summaries, summary)
	}
	return summaries, nil
}
