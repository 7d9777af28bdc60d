package signaling

import (
	"time"

	"stitchtherapy/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Client is one websocket connection attached to the hub. UserID is set when
// the connection authenticated with a bearer token; anonymous call-link
// joiners leave it empty.
type Client struct {
	ID     string
	UserID string

	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool

	// dead is set under the hub lock once the send buffer overflows.
	dead bool
}

// NewClient wraps an upgraded connection. Call Run to start the pumps.
func NewClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]bool),
	}
}

// enqueue hands a payload to the write pump. Called under the hub lock. A
// receiver whose buffer is full is dropped rather than allowed to stall the
// room; closing the channel shuts its write pump down.
func (c *Client) enqueue(payload []byte) {
	if c.dead {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.dead = true
		close(c.send)
	}
}

// Run services the connection until it closes, then detaches from all rooms.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.GetLogger().Debug("signaling read error", zap.String("peer", c.ID), zap.Error(err))
			}
			return
		}
		c.hub.HandleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
