package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tamaverse/petgotchi/internal/engine"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
	"github.com/tamaverse/petgotchi/internal/platform/metrics"
)

// ViewBroadcastRate is how often the hub pushes a fresh view snapshot.
const ViewBroadcastRate = time.Second

// Message is the envelope every hub push uses.
type Message struct {
	Kind    string      `json:"kind"` // "event" or "view"
	Payload interface{} `json:"payload"`
}

// BacklogSource supplies an owner's recent persisted events so a client
// joining mid-life sees how the pet got where it is.
type BacklogSource interface {
	Recent(ctx context.Context, owner string, limit int) ([]events.Event, error)
}

// backlogLimit bounds how much history a new client is pushed.
const backlogLimit = 32

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector
	ctrl       *engine.Controller
	backlog    BacklogSource // nil disables the history push
}

// NewHub initializes a new WebSocket Hub around one controller.
func NewHub(ctrl *engine.Controller, backlog BacklogSource, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    metrics.Get(),
		ctrl:       ctrl,
		backlog:    backlog,
	}
}

// Run starts the Hub's main loop to handle client connections and
// broadcasts. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
			h.sendBacklog(ctx, client)
			client.sendView(h.ctrl.View())
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendBacklog pushes the owner's recent persisted events to one freshly
// registered client. A full send buffer cuts the replay short rather than
// stalling the hub loop.
func (h *Hub) sendBacklog(ctx context.Context, c *Client) {
	if h.backlog == nil {
		return
	}
	history, err := h.backlog.Recent(ctx, h.ctrl.Owner(), backlogLimit)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Error("Failed to load event backlog: %v", err)
		return
	}
	for _, e := range history {
		data, err := json.Marshal(Message{Kind: "event", Payload: e})
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
			h.metrics.RecordWSMessage(false)
		default:
			return
		}
	}
}

// Broadcast serializes a message and queues it for every client.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	data, err := json.Marshal(Message{Kind: kind, Payload: payload})
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Error("Failed to serialize %s message for broadcast: %v", kind, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// StartForwarders subscribes to the event log and the view snapshot ticker
// and pushes both to connected clients.
func (h *Hub) StartForwarders(ctx context.Context, eventLog *events.Log) {
	sub := eventLog.Subscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-sub:
				h.Broadcast("event", e)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(ViewBroadcastRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Broadcast("view", h.ctrl.View())
			}
		}
	}()
}
