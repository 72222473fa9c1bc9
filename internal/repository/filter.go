package repository

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"event_chat/internal/domain"
)

// psql builds queries with $n placeholders for pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// MessageFilter is a clause over chat_messages. The unexported method seals
// the set of clauses to this package so a filter can only name columns the
// table actually has.
type MessageFilter interface {
	Matches(m *domain.ChatMessage) bool
	messageClause() sq.Sqlizer
}

type MessageEventIs uuid.UUID

func (f MessageEventIs) Matches(m *domain.ChatMessage) bool { return m.EventID == uuid.UUID(f) }
func (f MessageEventIs) messageClause() sq.Sqlizer       { return sq.Eq{"m.event_id": uuid.UUID(f)} }

type MessageStatusIs domain.MessageStatus

func (f MessageStatusIs) Matches(m *domain.ChatMessage) bool {
	return m.Status == domain.MessageStatus(f)
}
func (f MessageStatusIs) messageClause() sq.Sqlizer { return sq.Eq{"m.status": string(f)} }

// MessageCreatedBefore is the pagination cursor: strictly older than the instant.
type MessageCreatedBefore time.Time

func (f MessageCreatedBefore) Matches(m *domain.ChatMessage) bool {
	return m.CreatedAt.Before(time.Time(f))
}
func (f MessageCreatedBefore) messageClause() sq.Sqlizer {
	return sq.Lt{"m.created_at": time.Time(f)}
}

type MessageCreatedAfter time.Time

func (f MessageCreatedAfter) Matches(m *domain.ChatMessage) bool {
	return m.CreatedAt.After(time.Time(f))
}
func (f MessageCreatedAfter) messageClause() sq.Sqlizer {
	return sq.Gt{"m.created_at": time.Time(f)}
}

type MessageSenderIsNot uuid.UUID

func (f MessageSenderIsNot) Matches(m *domain.ChatMessage) bool {
	return m.SenderID != uuid.UUID(f)
}
func (f MessageSenderIsNot) messageClause() sq.Sqlizer {
	return sq.NotEq{"m.sender_id": uuid.UUID(f)}
}

// MessageQuery selects chat messages newest-first.
type MessageQuery struct {
	Filters []MessageFilter
	Limit   int
}

func (q MessageQuery) Matches(m *domain.ChatMessage) bool {
	for _, f := range q.Filters {
		if !f.Matches(m) {
			return false
		}
	}
	return true
}

func (q MessageQuery) where() sq.And {
	and := sq.And{}
	for _, f := range q.Filters {
		and = append(and, f.messageClause())
	}
	return and
}

// PrivateMessageFilter is a clause over private_messages.
type PrivateMessageFilter interface {
	Matches(m *domain.PrivateMessage) bool
	privateClause() sq.Sqlizer
}

// PrivateBetween matches the conversation of two users in either direction.
type PrivateBetween struct {
	A, B uuid.UUID
}

func (f PrivateBetween) Matches(m *domain.PrivateMessage) bool {
	return (m.SenderID == f.A && m.ReceiverID == f.B) || (m.SenderID == f.B && m.ReceiverID == f.A)
}
func (f PrivateBetween) privateClause() sq.Sqlizer {
	return sq.Or{
		sq.Eq{"p.sender_id": f.A, "p.receiver_id": f.B},
		sq.Eq{"p.sender_id": f.B, "p.receiver_id": f.A},
	}
}

type PrivateFrom uuid.UUID

func (f PrivateFrom) Matches(m *domain.PrivateMessage) bool { return m.SenderID == uuid.UUID(f) }
func (f PrivateFrom) privateClause() sq.Sqlizer           { return sq.Eq{"p.sender_id": uuid.UUID(f)} }

type PrivateTo uuid.UUID

func (f PrivateTo) Matches(m *domain.PrivateMessage) bool { return m.ReceiverID == uuid.UUID(f) }
func (f PrivateTo) privateClause() sq.Sqlizer           { return sq.Eq{"p.receiver_id": uuid.UUID(f)} }

type PrivateStatusIs domain.PrivateMessageStatus

func (f PrivateStatusIs) Matches(m *domain.PrivateMessage) bool {
	return m.Status == domain.PrivateMessageStatus(f)
}
func (f PrivateStatusIs) privateClause() sq.Sqlizer { return sq.Eq{"p.status": string(f)} }

// PrivateNotDeleted excludes messages whose status is DELETED.
type PrivateNotDeleted struct{}

func (PrivateNotDeleted) Matches(m *domain.PrivateMessage) bool {
	return m.Status != domain.PrivateMessageStatusDeleted
}
func (PrivateNotDeleted) privateClause() sq.Sqlizer {
	return sq.NotEq{"p.status": string(domain.PrivateMessageStatusDeleted)}
}

type PrivateCreatedBefore time.Time

func (f PrivateCreatedBefore) Matches(m *domain.PrivateMessage) bool {
	return m.CreatedAt.Before(time.Time(f))
}
func (f PrivateCreatedBefore) privateClause() sq.Sqlizer {
	return sq.Lt{"p.created_at": time.Time(f)}
}

// PrivateMessageQuery selects private messages newest-first.
type PrivateMessageQuery struct {
	Filters []PrivateMessageFilter
	Limit   int
}

func (q PrivateMessageQuery) Matches(m *domain.PrivateMessage) bool {
	for _, f := range q.Filters {
		if !f.Matches(m) {
			return false
		}
	}
	return true
}

func (q PrivateMessageQuery) where() sq.And {
	and := sq.And{}
	for _, f := range q.Filters {
		and = append(and, f.privateClause())
	}
	return and
}

// MuteFilter is a clause over event_mutes.
type MuteFilter interface {
	Matches(m *domain.EventMute) bool
	muteClause() sq.Sqlizer
}

type MuteEventIs uuid.UUID

func (f MuteEventIs) Matches(m *domain.EventMute) bool { return m.EventID == uuid.UUID(f) }
func (f MuteEventIs) muteClause() sq.Sqlizer         { return sq.Eq{"em.event_id": uuid.UUID(f)} }

// MuteActiveAfter keeps timed mutes that end after the instant. Permanent
// bans have a NULL mute_until and never satisfy the comparison.
type MuteActiveAfter time.Time

func (f MuteActiveAfter) Matches(m *domain.EventMute) bool {
	return m.MuteUntil != nil && m.MuteUntil.After(time.Time(f))
}
func (f MuteActiveAfter) muteClause() sq.Sqlizer {
	return sq.Gt{"em.mute_until": time.Time(f)}
}

type MutePermanent struct{}

func (MutePermanent) Matches(m *domain.EventMute) bool { return m.MuteUntil == nil }
func (MutePermanent) muteClause() sq.Sqlizer         { return sq.Eq{"em.mute_until": nil} }

// MuteQuery selects mutes newest-first by creation time.
type MuteQuery struct {
	Filters []MuteFilter
	Limit   int
}

func (q MuteQuery) Matches(m *domain.EventMute) bool {
	for _, f := range q.Filters {
		if !f.Matches(m) {
			return false
		}
	}
	return true
}

func (q MuteQuery) where() sq.And {
	and := sq.And{}
	for _, f := range q.Filters {
		and = append(and, f.muteClause())
	}
	return and
}
