package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// VoteEvent is the real-time notification broadcast after a vote is durably
// recorded. Delivery is best-effort: the vote succeeds regardless of whether
// any client receives it.
type VoteEvent struct {
	Type       string `json:"type"`
	PollID     int64  `json:"poll_id"`
	TotalVotes int    `json:"total_votes"`
}

// NewVoteEvent builds the vote_cast event for a poll.
func NewVoteEvent(pollID int64, totalVotes int) VoteEvent {
	return VoteEvent{
		Type:       "vote_cast",
		PollID:     pollID,
		TotalVotes: totalVotes,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients without blocking.
func (h *Hub) Broadcast(ev VoteEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
