package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusActive    EventStatus = "ACTIVE"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

type Event struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ImageURL    *string     `json:"image_url,omitempty"`
	OrganizerID uuid.UUID   `json:"organizer_id"`
	StartDate   time.Time   `json:"start_date"`
	Status      EventStatus `json:"status"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

func (e *Event) IsChatOpen() bool {
	return e.Status == EventStatusActive && e.DeletedAt == nil
}

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusUsed      TicketStatus = "USED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusRefunded  TicketStatus = "REFUNDED"
)

type Ticket struct {
	ID      uuid.UUID    `json:"id"`
	EventID uuid.UUID    `json:"event_id"`
	UserID  uuid.UUID    `json:"user_id"`
	Status  TicketStatus `json:"status"`
}
