package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"linkup/internal/common"
	"linkup/internal/config"
	"linkup/internal/metrics"
)

const handshakeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the reverse proxy in this deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Membership gates room joins to conversation participants; the conversation
// repository implements it.
type Membership interface {
	IsMember(ctx context.Context, conversationID, userID uint64) (bool, error)
}

// Gateway owns every live connection, room membership, and event fan-out.
// It is handed to handlers by injection; nothing here is package-global.
type Gateway struct {
	cfg        config.RealtimeConfig
	logger     zerolog.Logger
	presence   *PresenceTracker
	membership Membership

	mu      sync.Mutex
	clients map[*Client]struct{}
	byUser  map[uint64]map[*Client]struct{}
	rooms   map[uint64]map[*Client]struct{}
}

func NewGateway(cfg *config.Config, presence *PresenceTracker, membership Membership, logger zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:        cfg.Realtime,
		logger:     logger,
		presence:   presence,
		membership: membership,
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[uint64]map[*Client]struct{}),
		rooms:      make(map[uint64]map[*Client]struct{}),
	}
}

// HandleWS upgrades the connection and runs the handshake. A connection that
// fails validation is closed before it ever reaches presence or a room.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	claims, ok := g.authenticate(conn)
	if !ok {
		conn.Close()
		return
	}

	client := &Client{
		userID: claims.UserID,
		conn:   conn,
		send:   make(chan []byte, g.cfg.SendBufferSize),
		gw:     g,
	}
	g.register(client)

	go client.writePump()
	client.readPump()
}

func (g *Gateway) authenticate(conn wsConn) (*common.Claims, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	var hs handshake
	if err := json.Unmarshal(raw, &hs); err != nil || hs.UserID == 0 || hs.Token == "" {
		return nil, false
	}

	claims, err := common.ValidToken(hs.Token)
	if err != nil || claims.UserID != hs.UserID {
		return nil, false
	}
	return claims, true
}

func (g *Gateway) register(c *Client) {
	g.mu.Lock()
	g.clients[c] = struct{}{}
	if g.byUser[c.userID] == nil {
		g.byUser[c.userID] = make(map[*Client]struct{})
	}
	g.byUser[c.userID][c] = struct{}{}
	g.mu.Unlock()

	metrics.LiveConnections.Inc()

	if g.presence.Connect(c.userID) {
		g.BroadcastAll(EventUserStatus, UserStatusEvent{UserID: c.userID, Online: true})
	}
	g.logger.Debug().Uint64("user_id", c.userID).Msg("client connected")
}

// unregister tears down all room memberships and decrements presence
// synchronously as part of the disconnect path.
func (g *Gateway) unregister(c *Client) {
	g.mu.Lock()
	if _, known := g.clients[c]; !known {
		g.mu.Unlock()
		return
	}
	delete(g.clients, c)
	if set := g.byUser[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(g.byUser, c.userID)
		}
	}
	for roomID, members := range g.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(g.rooms, roomID)
		}
	}
	close(c.send)
	g.mu.Unlock()

	metrics.LiveConnections.Dec()

	if g.presence.Disconnect(c.userID) {
		g.BroadcastAll(EventUserStatus, UserStatusEvent{UserID: c.userID, Online: false})
	}
	g.logger.Debug().Uint64("user_id", c.userID).Msg("client disconnected")
}

func (g *Gateway) handleClientEvent(c *Client, env Envelope) {
	switch env.Event {
	case EventJoinConversation:
		var p joinPayload
		if json.Unmarshal(env.Data, &p) != nil || p.ConversationID == 0 {
			return
		}
		member, err := g.membership.IsMember(context.Background(), p.ConversationID, c.userID)
		if err != nil {
			g.logger.Error().Err(err).Uint64("conversation_id", p.ConversationID).Msg("membership check failed")
			return
		}
		if !member {
			g.logger.Debug().Uint64("user_id", c.userID).Uint64("conversation_id", p.ConversationID).Msg("join rejected")
			return
		}
		g.joinRoom(c, p.ConversationID)
	case EventLeaveConversation:
		var p joinPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ConversationID != 0 {
			g.leaveRoom(c, p.ConversationID)
		}
	case EventTyping:
		var p typingPayload
		if json.Unmarshal(env.Data, &p) == nil && p.ConversationID != 0 && g.inRoom(c, p.ConversationID) {
			g.broadcastExcept(p.ConversationID, c, EventUserTyping, UserTypingEvent{
				ConversationID: p.ConversationID,
				UserID:         c.userID,
				IsTyping:       p.IsTyping,
			})
		}
	case EventUserOnline:
		// Explicit presence announce from a freshly connected client.
		g.BroadcastAll(EventUserStatus, UserStatusEvent{UserID: c.userID, Online: true})
	default:
		g.logger.Debug().Str("event", env.Event).Msg("unknown client event")
	}
}

// joinRoom adds the connection to a conversation's broadcast scope. A
// connection may be in many rooms at once, one per open conversation.
func (g *Gateway) joinRoom(c *Client, conversationID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, known := g.clients[c]; !known {
		return
	}
	if g.rooms[conversationID] == nil {
		g.rooms[conversationID] = make(map[*Client]struct{})
	}
	g.rooms[conversationID][c] = struct{}{}
}

func (g *Gateway) inRoom(c *Client, conversationID uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rooms[conversationID][c]
	return ok
}

func (g *Gateway) leaveRoom(c *Client, conversationID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members := g.rooms[conversationID]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(g.rooms, conversationID)
	}
}

// BroadcastToRoom fans an event out to every current member of the room.
// Enqueueing happens under the gateway lock, so members observe events for
// one room in the order they were broadcast.
func (g *Gateway) BroadcastToRoom(conversationID uint64, event string, payload interface{}) {
	g.broadcastExcept(conversationID, nil, event, payload)
}

func (g *Gateway) broadcastExcept(conversationID uint64, skip *Client, event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("event", event).Msg("marshal broadcast")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.rooms[conversationID] {
		if c == skip {
			continue
		}
		if c.enqueue(frame) {
			metrics.EventsFanned.WithLabelValues(event).Inc()
		}
	}
}

// SendToUser delivers an event to every connection the user holds,
// regardless of rooms. Used for notification push.
func (g *Gateway) SendToUser(userID uint64, event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("event", event).Msg("marshal user event")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.byUser[userID] {
		if c.enqueue(frame) {
			metrics.EventsFanned.WithLabelValues(event).Inc()
		}
	}
}

// BroadcastAll delivers an event to every live connection (presence edges).
func (g *Gateway) BroadcastAll(event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("event", event).Msg("marshal global event")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.clients {
		if c.enqueue(frame) {
			metrics.EventsFanned.WithLabelValues(event).Inc()
		}
	}
}

// RoomSize reports current membership, used by tests and the stats endpoint.
func (g *Gateway) RoomSize(conversationID uint64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms[conversationID])
}
