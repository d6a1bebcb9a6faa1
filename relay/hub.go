// Package relay is the server half of the broadcast channel. Clients join a
// project room by emitting open-project; task events they emit for that
// project are re-broadcast to the other members of the room.
package relay

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"prism-sync/channel"
	"prism-sync/domain"
)

const memberBuffer = 32

// Envelope is a routed frame as it travels between relay instances.
type Envelope struct {
	Instance string `json:"instance"`
	Origin   string `json:"origin"`
	Room     string `json:"room"`
	Frame    []byte `json:"frame"`
}

// Publisher fans an envelope out to other relay instances.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Member is one connected client.
type Member struct {
	ID     string
	UserID string
	send   chan []byte

	room string
}

// Send returns the outbound queue of the member.
func (m *Member) Send() <-chan []byte { return m.send }

// Hub tracks room membership and routes frames.
type Hub struct {
	instance string
	logger   *log.Logger
	pub      Publisher

	mu    sync.RWMutex
	rooms map[string]map[*Member]struct{}
}

// NewHub creates a hub. pub may be nil for a single instance relay.
func NewHub(logger *log.Logger, pub Publisher) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Hub{
		instance: uuid.NewString(),
		logger:   logger,
		pub:      pub,
		rooms:    make(map[string]map[*Member]struct{}),
	}
}

// Instance identifies this hub across the fan-out bus.
func (h *Hub) Instance() string { return h.instance }

// Connect registers a new member.
func (h *Hub) Connect(userID string) *Member {
	return &Member{ID: uuid.NewString(), UserID: userID, send: make(chan []byte, memberBuffer)}
}

// Disconnect removes m from its room.
func (h *Hub) Disconnect(m *Member) {
	h.mu.Lock()
	h.leaveLocked(m)
	h.mu.Unlock()
}

// Join moves m into room. A member is in at most one room.
func (h *Hub) Join(m *Member, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(m)
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Member]struct{})
		h.rooms[room] = members
	}
	members[m] = struct{}{}
	m.room = room
}

func (h *Hub) leaveLocked(m *Member) {
	if m.room == "" {
		return
	}
	if members, ok := h.rooms[m.room]; ok {
		delete(members, m)
		if len(members) == 0 {
			delete(h.rooms, m.room)
		}
	}
	m.room = ""
}

// RoomSize returns the number of local members in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// HandleFrame processes a frame received from m.
func (h *Hub) HandleFrame(ctx context.Context, m *Member, frame channel.Frame) {
	if frame.Event == domain.OpenProject {
		var room string
		if err := sonic.Unmarshal(frame.Data, &room); err != nil || room == "" {
			h.logger.WithField("member", m.ID).Warn("open-project without project id - ignoring it")
			return
		}
		h.Join(m, room)
		h.logger.WithFields(log.Fields{"member": m.ID, "user": m.UserID, "project": room}).Debug("member joined project")
		return
	}

	inbound, ok := domain.InboundEvent(frame.Event)
	if !ok {
		h.logger.Warnf("Received unknown event %s from member %s - ignoring it", frame.Event, m.ID)
		return
	}
	var task domain.Task
	if err := sonic.Unmarshal(frame.Data, &task); err != nil {
		h.logger.Errorf("parse %s: %v", frame.Event, err)
		return
	}
	if task.Project == "" {
		h.logger.WithField("task", task.ID).Warnf("%s without project - ignoring it", frame.Event)
		return
	}
	data, err := sonic.Marshal(task)
	if err != nil {
		h.logger.Errorf("marshal task: %v", err)
		return
	}
	out, err := sonic.Marshal(channel.Frame{Event: inbound, Data: data})
	if err != nil {
		h.logger.Errorf("marshal frame: %v", err)
		return
	}
	room := task.Project.String()
	h.mu.RLock()
	joined := m.room
	h.mu.RUnlock()
	if joined != room {
		h.logger.WithFields(log.Fields{"member": m.ID, "joined": joined, "project": room}).Warnf("%s outside the joined project - ignoring it", frame.Event)
		return
	}
	h.Deliver(room, m.ID, out)
	if h.pub != nil {
		env := Envelope{Instance: h.instance, Origin: m.ID, Room: room, Frame: out}
		if err := h.pub.Publish(ctx, env); err != nil {
			h.logger.Errorf("fan out %s: %v", inbound, err)
		}
	}
}

// Deliver queues frame for every local member of room except origin.
// Members whose queue is full miss the frame.
func (h *Hub) Deliver(room, origin string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for m := range h.rooms[room] {
		if m.ID == origin {
			continue
		}
		select {
		case m.send <- frame:
		default:
			h.logger.WithFields(log.Fields{"member": m.ID, "project": room}).Warn("member queue full, dropping frame")
		}
	}
}

// Receive delivers an envelope published by another instance.
func (h *Hub) Receive(env Envelope) {
	if env.Instance == h.instance {
		return
	}
	h.Deliver(env.Room, env.Origin, env.Frame)
}
