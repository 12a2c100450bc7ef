package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	logger    *logrus.Entry
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, logger *logrus.Entry) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger.WithField("client", id).WithField("remoteAddr", conn.RemoteAddr().String()),
	}
}

// queue hands one state to the write pump ahead of any broadcast.
func (c *Client) queue(state DisplayState) {
	payload, err := json.Marshal(state)
	if err != nil {
		c.logger.WithError(err).Error("failed to encode display state")
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// close unregisters the client and closes the connection exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.logger.Debug("closing client connection")
		c.hub.drop(c)
		if err := c.conn.Close(); err != nil {
			// Expected if the other end has already hung up.
			c.logger.WithError(err).Debug("error while closing client connection")
		}
	})
}

// readPump discards client messages and detects a dead connection via read deadlines.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.WithError(err).Warn("failed to set initial read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Debug("client read error, triggering disconnect")
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.WithError(err).Warn("failed to reset read deadline")
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.WithError(err).Warn("failed to set write deadline")
				return
			}
			if !ok {
				c.logger.Debug("hub closed channel, closing connection")
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WithError(err).Warn("client write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.WithError(err).Warn("failed to set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.WithError(err).Debug("client ping failed")
				return
			}
		}
	}
}
