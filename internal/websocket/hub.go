package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// MessageNotesChanged is the envelope type pushed to clients after a committed write.
	MessageNotesChanged = "notes_changed"

	clusterChannel = "notesync:notes_changed"
)

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterMessage struct {
	TargetUserId uuid.UUID       `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

type Hub struct {
	// UserID -> connected clients (multi-device)
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis fans messages out across instances. While this instance is subscribed every
	// message goes through the channel, including the ones for its own clients.
	rdb *redis.Client
	// relaying is true while the Redis subscription is live
	relaying atomic.Bool

	// closed once the Redis subscription attempt has settled, either way
	subscribed chan struct{}
	// closed when Run returns
	done chan struct{}

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		subscribed: make(chan struct{}),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	} else {
		close(h.subscribed)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userId, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, userId)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
				}
				if len(clients) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register attaches client; it reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send implements service.ChangeDelivery.
func (h *Hub) Send(userId uuid.UUID, msg dto.NoteChangedMessage) {
	data, err := json.Marshal(envelope{Type: MessageNotesChanged, Data: msg})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode note change", map[string]interface{}{"error": err})
		return
	}

	// Without a live subscription a published notice would never come back here.
	if h.rdb == nil || !h.relaying.Load() {
		h.deliver(userId, data)
		return
	}

	payload, _ := json.Marshal(clusterMessage{TargetUserId: userId, Message: data})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed, delivering locally", map[string]interface{}{
			"user_id": userId,
			"error":   err,
		})
		h.deliver(userId, data)
	}
}

// deliver writes to this instance's clients. A client whose buffer is full misses the
// notice; its next refetch catches up.
func (h *Hub) deliver(userId uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userId] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"user_id": userId})
		}
	}
}

// ClientCount reports how many connections userId has on this instance.
func (h *Hub) ClientCount(userId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("Hub", "Redis subscribe failed, delivering locally only", map[string]interface{}{"error": err})
		close(h.subscribed)
		return
	}
	h.relaying.Store(true)
	defer h.relaying.Store(false)
	close(h.subscribed)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err})
				continue
			}
			h.deliver(payload.TargetUserId, payload.Message)
		}
	}
}
