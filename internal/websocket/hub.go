package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"promptdesk-backend/internal/models"
)

// Channel carries change events between backend processes sharing a Redis.
const Channel = "promptdesk:changes"

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Observer is told about published events and client churn.
type Observer interface {
	EventPublished(eventType string)
	ClientConnected()
	ClientDisconnected()
}

type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub pushes ChangeEvents to every connected websocket client. With Redis
// configured, events go through a pub/sub channel so clients of every
// process sharing it see them.
type Hub struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]*client
	redisClient *redis.Client
	observer    Observer
	log         zerolog.Logger
	subscribed  chan struct{}
	relaying    atomic.Bool
}

func NewHub(redisClient *redis.Client, observer Observer, log zerolog.Logger) *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID]*client),
		redisClient: redisClient,
		observer:    observer,
		log:         log.With().Str("component", "events").Logger(),
		subscribed:  make(chan struct{}),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{id: uuid.New(), conn: conn}
	h.registerClient(c)

	// Clients never send anything; reading detects the disconnect.
	go func() {
		defer h.unregisterClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerClient(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ClientConnected()
	}
	h.log.Debug().Str("client_id", c.id.String()).Int("total", total).Msg("websocket connected")
}

func (h *Hub) unregisterClient(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.conn.Close()
	if !ok {
		return
	}
	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
	h.log.Debug().Str("client_id", c.id.String()).Msg("websocket disconnected")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers evt to local clients, or to the Redis channel when one is
// configured. A failed Redis publish falls back to local delivery, as does
// any publish while Run is not relaying the channel.
func (h *Hub) Publish(evt models.ChangeEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode change event")
		return
	}
	if h.observer != nil {
		h.observer.EventPublished(evt.Type)
	}

	if h.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := h.redisClient.Publish(ctx, Channel, data).Err()
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Msg("redis publish failed, delivering locally")
		} else if h.relaying.Load() {
			return
		}
	}
	h.broadcast(data)
}


// Run relays events from the Redis channel to local clients until ctx is
// done. Without Redis it only waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.redisClient == nil {
		close(h.subscribed)
		<-ctx.Done()
		return nil
	}

	pubsub := h.redisClient.Subscribe(ctx, Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	h.relaying.Store(true)
	defer h.relaying.Store(false)
	close(h.subscribed)
	h.log.Info().Str("channel", Channel).Msg("subscribed to change events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// Subscribed is closed once Run is ready to relay events.
func (h *Hub) Subscribed() <-chan struct{} {
	return h.subscribed
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Debug().Err(err).Str("client_id", c.id.String()).Msg("websocket write failed")
			h.unregisterClient(c)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		h.unregisterClient(c)
	}
}
