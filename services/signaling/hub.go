// Package signaling relays WebRTC session negotiation between the peers in a
// call room. The relay is content-agnostic: offers, answers, and ICE
// candidates pass through as opaque JSON.
package signaling

import (
	"encoding/json"
	"sync"

	"stitchtherapy/utils"

	"go.uber.org/zap"
)

// Inbound message types.
const (
	MsgJoinRoom  = "join-room"
	MsgSignal    = "signal"
	MsgLeaveRoom = "leave-room"
)

// Outbound message types.
const (
	MsgPeerJoined = "peer-joined"
	MsgPeerLeft   = "peer-left"
)

// Envelope is the wire format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Room string          `json:"room,omitempty"`
	From string          `json:"from,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub tracks rooms and their occupants and fans signaling messages out to
// everyone in a room except the sender. All delivery for one room happens
// under the hub lock, so each occupant observes messages in relay order.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Client]bool
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]bool),
		logger: utils.GetLogger().Named("signaling"),
	}
}

// Join adds the client to a room and tells existing occupants a peer arrived.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	occupants, ok := h.rooms[room]
	if !ok {
		occupants = make(map[*Client]bool)
		h.rooms[room] = occupants
	}
	if occupants[c] {
		return
	}

	h.broadcastLocked(room, c, Envelope{Type: MsgPeerJoined, Room: room, From: c.ID})
	occupants[c] = true
	c.rooms[room] = true

	h.logger.Debug("peer joined room",
		zap.String("room", room),
		zap.String("peer", c.ID),
		zap.Int("occupants", len(occupants)))
}

// Relay forwards a signaling payload to every other occupant of the room.
// Senders not in the room are ignored.
func (h *Hub) Relay(c *Client, room string, data json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.rooms[room][c] {
		return
	}
	h.broadcastLocked(room, c, Envelope{Type: MsgSignal, Room: room, From: c.ID, Data: data})
}

// Leave removes the client from a room and notifies the remaining occupants.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// Disconnect removes the client from every room it joined.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	occupants, ok := h.rooms[room]
	if !ok || !occupants[c] {
		return
	}
	delete(occupants, c)
	delete(c.rooms, room)
	if len(occupants) == 0 {
		delete(h.rooms, room)
	}

	h.broadcastLocked(room, c, Envelope{Type: MsgPeerLeft, Room: room, From: c.ID})
}

// broadcastLocked sends to every occupant except the origin. Callers hold
// the hub lock.
func (h *Hub) broadcastLocked(room string, origin *Client, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to encode signaling envelope", zap.Error(err))
		return
	}
	for occupant := range h.rooms[room] {
		if occupant == origin {
			continue
		}
		occupant.enqueue(payload)
	}
}

// Announce pushes a server-originated control message, such as end-call or
// mute, to every occupant of a room.
func (h *Hub) Announce(room, msgType string, data json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(room, nil, Envelope{Type: msgType, Room: room, Data: data})
}

// Occupancy reports how many peers are in a room.
func (h *Hub) Occupancy(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// HandleMessage dispatches one decoded inbound envelope. Unknown types and
// messages without a room are dropped without closing the connection.
func (h *Hub) HandleMessage(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Room == "" {
		return
	}

	switch env.Type {
	case MsgJoinRoom:
		h.Join(c, env.Room)
	case MsgSignal:
		h.Relay(c, env.Room, env.Data)
	case MsgLeaveRoom:
		h.Leave(c, env.Room)
	}
}
