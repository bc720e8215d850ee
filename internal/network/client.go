package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ClientAction represents an incoming command from the frontend.
type ClientAction struct {
	Type string `json:"type"` // "feed", "play", "clean", "heal", "revive", "new_game", "evolve"
	Kind string `json:"kind,omitempty"`
}

// Client represents an active WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

func (c *Client) sendView(v engine.ViewState) {
	data, err := json.Marshal(Message{Kind: "view", Payload: v})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ReadPump pumps action messages from the websocket connection into the
// controller. The controller serializes them internally, so concurrent
// clients cannot interleave mutations.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Error("WebSocket read error: %v", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action ClientAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse ClientAction from WebSocket: %v", err)
			continue
		}
		c.dispatch(action)
	}
}

func (c *Client) dispatch(action ClientAction) {
	ctrl := c.hub.ctrl
	var err error

	switch action.Type {
	case "feed":
		kind := pet.FoodKind(action.Kind)
		if kind == "" {
			kind = pet.FoodMeal
		}
		err = ctrl.Feed(kind)
	case "play":
		err = ctrl.Play()
	case "clean":
		err = ctrl.Clean()
	case "heal":
		err = ctrl.Heal()
	case "revive":
		if ok, outcome := ctrl.Revive(); !ok {
			c.hub.logger.Warn("Revive via WebSocket refused: %s", outcome)
		}
	case "new_game":
		ctrl.NewGame()
	case "evolve":
		// Kind optionally names the juvenile variant to hatch into.
		var ok bool
		if action.Kind != "" {
			ok = ctrl.Hatch(pet.Variant(action.Kind))
		} else {
			ok = ctrl.ForceEvolve()
		}
		if !ok {
			c.hub.logger.Info("Evolve via WebSocket refused (kind=%q)", action.Kind)
		}
	default:
		c.hub.logger.Warn("Unknown WebSocket action: %s", action.Type)
		return
	}

	if err != nil {
		c.hub.logger.Info("Action %s rejected: %v", action.Type, err)
	}
	// Push the fresh view right away instead of waiting for the ticker.
	c.sendView(ctrl.View())
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
