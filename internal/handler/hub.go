package handler

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

const (
	FrameMessageNew     = "message.new"
	FrameMessageDeleted = "message.deleted"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	sendBuffer     = 32
)

// Frame is the JSON envelope pushed to live subscribers.
type Frame struct {
	Type      string              `json:"type"`
	EventID   uuid.UUID           `json:"event_id"`
	Message   *domain.ChatMessage `json:"message,omitempty"`
	MessageID *uuid.UUID          `json:"message_id,omitempty"`
}

type subscriber struct {
	hub     *Hub
	eventID uuid.UUID
	userID  uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans event-chat changes out to websocket subscribers, grouped by
// event. A subscriber whose buffer is full is dropped rather than allowed
// to stall the broadcast.
type Hub struct {
	mu     sync.RWMutex
	events map[uuid.UUID]map[*subscriber]struct{}
	log    logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		events: make(map[uuid.UUID]map[*subscriber]struct{}),
		log:    log,
	}
}

func (h *Hub) BroadcastEventMessage(msg *domain.ChatMessage) {
	h.publish(msg.EventID, Frame{Type: FrameMessageNew, EventID: msg.EventID, Message: msg})
}

func (h *Hub) BroadcastMessageDeleted(eventID, messageID uuid.UUID) {
	h.publish(eventID, Frame{Type: FrameMessageDeleted, EventID: eventID, MessageID: &messageID})
}

// Subscribers reports how many connections follow an event.
func (h *Hub) Subscribers(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}

// Serve registers conn and pumps frames until either side hangs up.
func (h *Hub) Serve(eventID, userID uuid.UUID, conn *websocket.Conn) {
	s := &subscriber{
		hub:     h,
		eventID: eventID,
		userID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	subs, ok := h.events[eventID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.events[eventID] = subs
	}
	subs[s] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("Live subscriber joined", "event_id", eventID, "user_id", userID)

	go s.writePump()
	s.readPump()
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID, subs := range h.events {
		for s := range subs {
			close(s.send)
		}
		delete(h.events, eventID)
	}
}

func (h *Hub) publish(eventID uuid.UUID, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("Failed to encode live frame", "type", frame.Type, "error", err)
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for s := range h.events[eventID] {
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn("Dropping slow live subscriber", "event_id", eventID, "user_id", s.userID)
		h.remove(s)
	}
}

// remove is safe to call more than once for the same subscriber.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.events[s.eventID]
	if !ok {
		return
	}
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.events, s.eventID)
	}
}

// readPump only services control frames; clients have nothing to say.
func (s *subscriber) readPump() {
	defer func() {
		s.hub.remove(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.log.Debug("Live subscriber read failed", "user_id", s.userID, "error", err)
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
