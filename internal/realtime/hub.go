package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventType for activity feed messages
type EventType string

const (
	EventWalletTransfer EventType = "wallet.transfer"
	EventWalletCredit   EventType = "wallet.credit"
	EventWalletDebit    EventType = "wallet.debit"
	EventStockDelivery  EventType = "stock.delivery"
	EventStockSale      EventType = "stock.sale"
	EventCollection     EventType = "logistics.collection"
	EventTokenRedeemed  EventType = "qr.redeemed"
)

const activityChannel = "activity:events"

// Event is one entry on the activity feed
type Event struct {
	Type    EventType   `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// Connection represents one dashboard WebSocket connection
type Connection struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans activity events out to connected dashboards. With Redis
// configured, events travel through Pub/Sub so every server instance sees
// them; without Redis the hub broadcasts locally only.
type Hub struct {
	redis  *redis.Client
	pubsub *redis.PubSub

	mu    sync.RWMutex
	conns map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		redis:      redisClient,
		conns:      make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes connection lifecycle and, when Redis is available, the
// Pub/Sub subscription. Call in a goroutine.
func (h *Hub) Run() {
	var pubsubCh <-chan *redis.Message
	if h.redis != nil {
		h.pubsub = h.redis.Subscribe(h.ctx, activityChannel)
		pubsubCh = h.pubsub.Channel()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.conns[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.conns[c] {
				delete(h.conns, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg, ok := <-pubsubCh:
			if !ok {
				pubsubCh = nil
				continue
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// Shutdown stops the hub and closes all connections
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		close(c.send)
		c.conn.Close()
	}
	h.conns = make(map[*Connection]bool)
}

// Publish emits an event on the feed. The core ledgers never depend on
// this: a failed publish is logged and dropped.
func (h *Hub) Publish(ctx context.Context, eventType EventType, payload interface{}) {
	if h == nil {
		return
	}

	data, err := json.Marshal(Event{Type: eventType, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", string(eventType)).Msg("activity event marshal failed")
		return
	}

	if h.redis != nil {
		if err := h.redis.Publish(ctx, activityChannel, data).Err(); err != nil {
			log.Warn().Err(err).Str("event", string(eventType)).Msg("activity event publish failed")
		}
		return
	}

	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			// slow consumer, drop the event rather than block the feed
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Connection{conn: ws, send: make(chan []byte, 64)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way
func (c *Connection) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
