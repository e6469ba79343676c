package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/campusqa/portal/internal/stats"
	"github.com/campusqa/portal/internal/token"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client owns one websocket connection for one authenticated user.
// Inbound frames are used only for liveness; all application traffic is
// server to client.
type Client struct {
	conn     *websocket.Conn
	registry *Registry
	log      *log.Logger
	stats    stats.StatsProvider
	ident    token.Identity
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(ident token.Identity, conn *websocket.Conn, registry *Registry, l *log.Logger, sp stats.StatsProvider) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		log:      l,
		stats:    sp,
		ident:    ident,
		send:     make(chan *ServerMessage, 64),
		stop:     make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for user %d", c.ident.Id)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for user %d", c.ident.Id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// clients have nothing to say on this channel; reading serves
		// close detection and pong handling only
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}
	}
}

// QueueMessage enqueues msg for delivery without blocking. It reports
// false if the client's buffer is full.
func (c *Client) QueueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("dropping message for user %d, send buffer full", c.ident.Id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.registry.Deregister(c.ident.Id, c)
	c.stopClient()
	c.stats.Decr(stats.ActiveConnections)
}
