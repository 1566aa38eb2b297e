package service

import (
	"context"
	"strings"
	"time"

	"linkup/internal/chat/repository"
	"linkup/internal/common"
	"linkup/internal/dbmysql"
	"linkup/internal/metrics"
	"linkup/internal/notif"
	"linkup/internal/realtime"
	"linkup/internal/user"
)

// Pagination mirrors the REST response block for message pages.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// MessagePage is returned oldest-first even though storage is read
// newest-first, so clients can append directly.
type MessagePage struct {
	Messages   []*dbmysql.Message `json:"messages"`
	Pagination Pagination         `json:"pagination"`
}

type MessageService interface {
	Send(ctx context.Context, conversationID, senderID uint64, content string) (*dbmysql.Message, error)
	Messages(ctx context.Context, conversationID, userID uint64, page, limit int) (*MessagePage, error)
	MarkRead(ctx context.Context, conversationID, userID uint64) error
	Delete(ctx context.Context, messageID, requesterID uint64) error
}

type messageService struct {
	msgRepo    repository.MessageRepository
	convRepo   repository.ConversationRepository
	users      user.UserRepository
	dispatcher notif.Dispatcher
	broadcast  Broadcaster
}

func NewMessageService(
	msgRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	users user.UserRepository,
	dispatcher notif.Dispatcher,
	broadcast Broadcaster,
) MessageService {
	return &messageService{
		msgRepo:    msgRepo,
		convRepo:   convRepo,
		users:      users,
		dispatcher: dispatcher,
		broadcast:  broadcast,
	}
}

// Send persists the message, bumps the conversation, notifies the other
// participant, and fans the message out to the room. The returned message
// carries the sender's public profile for immediate render.
func (s *messageService) Send(ctx context.Context, conversationID, senderID uint64, content string) (*dbmysql.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ValidationError("message content is required")
	}

	if _, err := s.convRepo.Participant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &dbmysql.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	if err := s.convRepo.Touch(ctx, conversationID, msg.CreatedAt); err != nil {
		return nil, err
	}

	if sender, err := s.users.ByID(ctx, senderID); err == nil {
		msg.Sender = sender
	}

	// Recipient == sender cannot happen in a two-party conversation, but the
	// dispatcher suppresses self-notifications anyway.
	if other, err := s.convRepo.OtherParticipant(ctx, conversationID, senderID); err == nil {
		if err := s.dispatcher.Set(ctx, other.UserID, senderID, dbmysql.NotifMessage,
			dbmysql.EntityRef{ConversationID: conversationID}); err != nil {
			return nil, err
		}
	}

	s.broadcast.BroadcastToRoom(conversationID, realtime.EventNewMessage, msg)

	return msg, nil
}

func (s *messageService) Messages(ctx context.Context, conversationID, userID uint64, page, limit int) (*MessagePage, error) {
	if _, err := s.convRepo.Participant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, total, err := s.msgRepo.Page(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}

	// Storage order is newest-first; flip to oldest-first for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &MessagePage{
		Messages: messages,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// MarkRead is idempotent and does not require unread messages to exist.
func (s *messageService) MarkRead(ctx context.Context, conversationID, userID uint64) error {
	if _, err := s.convRepo.Participant(ctx, conversationID, userID); err != nil {
		return err
	}

	if err := s.convRepo.MarkRead(ctx, conversationID, userID, time.Now().UTC()); err != nil {
		return err
	}

	s.broadcast.BroadcastToRoom(conversationID, realtime.EventMessagesRead, realtime.MessagesReadEvent{
		ConversationID: conversationID,
		UserID:         userID,
	})
	return nil
}

func (s *messageService) Delete(ctx context.Context, messageID, requesterID uint64) error {
	msg, err := s.msgRepo.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return common.AuthorizationError("you can only delete your own messages")
	}

	if err := s.msgRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.broadcast.BroadcastToRoom(msg.ConversationID, realtime.EventMessageDeleted, realtime.MessageDeletedEvent{
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
	})
	return nil
}
