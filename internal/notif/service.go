package notif

import (
	"context"

	"github.com/rs/zerolog"

	"linkup/internal/dbmysql"
	"linkup/internal/metrics"
	"linkup/internal/realtime"
)

// Pusher is the live-delivery seam; the realtime gateway implements it.
// Notification push is not room-scoped: it reaches every connection the
// recipient holds.
type Pusher interface {
	SendToUser(userID uint64, event string, payload interface{})
}

// Dispatcher persists notification records and fires the corresponding live
// push. Likes, comments, friend events and messages all funnel through it.
type Dispatcher interface {
	// Set is a no-op when recipient == sender (self-notifications are
	// suppressed). Repeat calls for the same key refresh rather than
	// duplicate.
	Set(ctx context.Context, recipientID, senderID uint64, t dbmysql.NotificationType, ref dbmysql.EntityRef) error
	// Unset makes toggleable interactions (unlike) idempotent; removing a
	// notification that was never created is not an error.
	Unset(ctx context.Context, recipientID, senderID uint64, t dbmysql.NotificationType, ref dbmysql.EntityRef) error
	Recent(ctx context.Context, recipientID uint64) ([]*dbmysql.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint64) error
	MarkRead(ctx context.Context, id string, recipientID uint64) error
}

// NewNotificationEvent is the payload pushed to the recipient's connections.
type NewNotificationEvent struct {
	RecipientID    uint64                  `json:"recipient_id"`
	SenderID       uint64                  `json:"sender_id"`
	Type           dbmysql.NotificationType `json:"type"`
	PostID         uint64                  `json:"post_id,omitempty"`
	ConversationID uint64                  `json:"conversation_id,omitempty"`
}

const recentLimit = 15 // sidebar shows only the most recent ones

type dispatcher struct {
	repo   dbmysql.NotificationRepository
	pusher Pusher
	logger zerolog.Logger
}

func NewDispatcher(repo dbmysql.NotificationRepository, pusher Pusher, logger zerolog.Logger) Dispatcher {
	return &dispatcher{repo: repo, pusher: pusher, logger: logger}
}

func (d *dispatcher) Set(ctx context.Context, recipientID, senderID uint64, t dbmysql.NotificationType, ref dbmysql.EntityRef) error {
	if recipientID == senderID {
		return nil
	}

	n := &dbmysql.Notification{
		RecipientID:    recipientID,
		SenderID:       senderID,
		Type:           t,
		PostID:         ref.PostID,
		ConversationID: ref.ConversationID,
	}
	if err := d.repo.Set(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(t)).Inc()

	// Best-effort push; the durable row is authoritative.
	d.pusher.SendToUser(recipientID, realtime.EventNewNotification, NewNotificationEvent{
		RecipientID:    recipientID,
		SenderID:       senderID,
		Type:           t,
		PostID:         ref.PostID,
		ConversationID: ref.ConversationID,
	})
	return nil
}

func (d *dispatcher) Unset(ctx context.Context, recipientID, senderID uint64, t dbmysql.NotificationType, ref dbmysql.EntityRef) error {
	if recipientID == senderID {
		return nil
	}
	return d.repo.Unset(ctx, recipientID, senderID, t, ref)
}

func (d *dispatcher) Recent(ctx context.Context, recipientID uint64) ([]*dbmysql.Notification, error) {
	return d.repo.Recent(ctx, recipientID, recentLimit)
}

func (d *dispatcher) MarkAllRead(ctx context.Context, recipientID uint64) error {
	return d.repo.MarkAllRead(ctx, recipientID)
}

func (d *dispatcher) MarkRead(ctx context.Context, id string, recipientID uint64) error {
	return d.repo.MarkRead(ctx, id, recipientID)
}
