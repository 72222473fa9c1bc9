package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"event_chat/internal/config"
	"event_chat/internal/domain"
	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

var testStart = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

type muteKey struct {
	eventID, userID uuid.UUID
}

// store is an in-memory stand-in for the relational tables.
type store struct {
	mu          sync.Mutex
	events      map[uuid.UUID]*domain.Event
	tickets     []*domain.Ticket
	users       map[uuid.UUID]*domain.User
	organizers  map[uuid.UUID]*domain.Organizer
	messages    []*domain.ChatMessage
	private     []*domain.PrivateMessage
	mutes       map[muteKey]*domain.EventMute
	friendships []*domain.Friendship
	blocks      []*domain.Block
	audit       []*domain.AuditLog
	lastSeen    map[uuid.UUID]time.Time
	counters    map[string]int64
}

func newStore() *store {
	return &store{
		events:     make(map[uuid.UUID]*domain.Event),
		users:      make(map[uuid.UUID]*domain.User),
		organizers: make(map[uuid.UUID]*domain.Organizer),
		mutes:      make(map[muteKey]*domain.EventMute),
		lastSeen:   make(map[uuid.UUID]time.Time),
		counters:   make(map[string]int64),
	}
}

func (s *store) addUser(name string, role domain.UserRole) *domain.User {
	u := &domain.User{ID: uuid.New(), Name: name, Role: role}
	s.users[u.ID] = u
	return u
}

func (s *store) addOrganizer(name string) *domain.Organizer {
	o := &domain.Organizer{ID: uuid.New(), Name: name}
	s.organizers[o.ID] = o
	return o
}

func (s *store) addEvent(title string, organizerID uuid.UUID, start time.Time) *domain.Event {
	e := &domain.Event{ID: uuid.New(), Title: title, OrganizerID: organizerID, StartDate: start, Status: domain.EventStatusActive}
	s.events[e.ID] = e
	return e
}

func (s *store) addTicket(eventID, userID uuid.UUID, status domain.TicketStatus) {
	s.tickets = append(s.tickets, &domain.Ticket{ID: uuid.New(), EventID: eventID, UserID: userID, Status: status})
}

func (s *store) befriend(a, b uuid.UUID, status domain.FriendshipStatus) {
	s.friendships = append(s.friendships, &domain.Friendship{RequesterID: a, AddresseeID: b, Status: status})
}

func (s *store) block(blocker, blocked uuid.UUID) {
	s.blocks = append(s.blocks, &domain.Block{BlockerID: blocker, BlockedID: blocked})
}

func (s *store) message(id uuid.UUID) *domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			cp := *m
			return &cp
		}
	}
	return nil
}

func (s *store) mute(eventID, userID uuid.UUID) *domain.EventMute {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mutes[muteKey{eventID, userID}]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

type fakeEventRepo struct{ *store }

func (r fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r fakeEventRepo) HasActiveTicket(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.UserID == userID && t.Status == domain.TicketStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeEventRepo) ListTicketHolderIDs(_ context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, t := range r.tickets {
		if t.EventID == eventID && t.Status == domain.TicketStatusActive && !slices.Contains(ids, t.UserID) {
			ids = append(ids, t.UserID)
		}
	}
	return ids, nil
}

func (r fakeEventRepo) ListTicketedEvents(_ context.Context, userID uuid.UUID) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, t := range r.tickets {
		if t.UserID != userID || t.Status != domain.TicketStatusActive {
			continue
		}
		if e, ok := r.events[t.EventID]; ok && e.IsChatOpen() {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeEventRepo) ListOrganizedEvents(_ context.Context, organizerID uuid.UUID) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.OrganizerID == organizerID && e.IsChatOpen() {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeUserRepo struct{ *store }

func (r fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*domain.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r fakeUserRepo) GetOrganizerByID(_ context.Context, id uuid.UUID) (*domain.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.organizers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r fakeUserRepo) GetOrganizersByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Organizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*domain.Organizer)
	for _, id := range ids {
		if o, ok := r.organizers[id]; ok {
			cp := *o
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeChatRepo struct{ *store }

func (r fakeChatRepo) CreateMessage(_ context.Context, m *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r fakeChatRepo) GetMessageByID(_ context.Context, id uuid.UUID) (*domain.ChatMessage, error) {
	return r.message(id), nil
}

func (r fakeChatRepo) ListMessages(_ context.Context, q repository.MessageQuery) ([]*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ChatMessage, 0)
	for _, m := range r.messages {
		if q.Matches(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.ChatMessage) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r fakeChatRepo) CountMessages(_ context.Context, filters ...repository.MessageFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := repository.MessageQuery{Filters: filters}
	n := 0
	for _, m := range r.messages {
		if q.Matches(m) {
			n++
		}
	}
	return n, nil
}

func (r fakeChatRepo) SoftDeleteMessage(_ context.Context, id uuid.UUID, placeholder string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id && m.Status == domain.MessageStatusActive {
			m.Status = domain.MessageStatusDeleted
			m.Message = placeholder
			m.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

type fakePrivateRepo struct{ *store }

func (r fakePrivateRepo) Create(_ context.Context, m *domain.PrivateMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.private = append(r.private, &cp)
	return nil
}

func (r fakePrivateRepo) List(_ context.Context, q repository.PrivateMessageQuery) ([]*domain.PrivateMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.PrivateMessage, 0)
	for _, m := range r.private {
		if q.Matches(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.PrivateMessage) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r fakePrivateRepo) Count(_ context.Context, filters ...repository.PrivateMessageFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := repository.PrivateMessageQuery{Filters: filters}
	n := 0
	for _, m := range r.private {
		if q.Matches(m) {
			n++
		}
	}
	return n, nil
}

func (r fakePrivateRepo) MarkRead(_ context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.private {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.Status == domain.PrivateMessageStatusSent {
			m.Status = domain.PrivateMessageStatusRead
			n++
		}
	}
	return n, nil
}

type fakeMuteRepo struct{ *store }

func (r fakeMuteRepo) Get(ctx context.Context, eventID, userID uuid.UUID) (*domain.EventMute, error) {
	return r.mute(eventID, userID), nil
}

func (r fakeMuteRepo) Upsert(_ context.Context, m *domain.EventMute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := muteKey{m.EventID, m.UserID}
	if existing, ok := r.mutes[key]; ok {
		existing.MuteUntil = m.MuteUntil
		existing.MutedByID = m.MutedByID
		m.CreatedAt = existing.CreatedAt
		return nil
	}
	cp := *m
	r.mutes[key] = &cp
	return nil
}

func (r fakeMuteRepo) Delete(_ context.Context, eventID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mutes, muteKey{eventID, userID})
	return nil
}

func (r fakeMuteRepo) DeleteExpired(_ context.Context, eventID, userID uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := muteKey{eventID, userID}
	if m, ok := r.mutes[key]; ok && m.ExpiredAt(now) {
		delete(r.mutes, key)
		return true, nil
	}
	return false, nil
}

func (r fakeMuteRepo) List(_ context.Context, q repository.MuteQuery) ([]*domain.EventMute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.EventMute, 0)
	for _, m := range r.mutes {
		if q.Matches(m) {
			cp := *m
			if u, ok := r.users[m.UserID]; ok {
				cp.UserName = u.Name
			}
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.EventMute) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type fakeSocialRepo struct{ *store }

func (r fakeSocialRepo) IsBlocked(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bl := range r.blocks {
		if (bl.BlockerID == a && bl.BlockedID == b) || (bl.BlockerID == b && bl.BlockedID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeSocialRepo) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.friendships {
		if f.Status != domain.FriendshipAccepted {
			continue
		}
		if (f.RequesterID == a && f.AddresseeID == b) || (f.RequesterID == b && f.AddresseeID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeSocialRepo) ListFriendIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, f := range r.friendships {
		if f.Status == domain.FriendshipAccepted && (f.RequesterID == userID || f.AddresseeID == userID) {
			ids = append(ids, f.Other(userID))
		}
	}
	return ids, nil
}

func (r fakeSocialRepo) ListBlockedIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, bl := range r.blocks {
		switch userID {
		case bl.BlockerID:
			ids = append(ids, bl.BlockedID)
		case bl.BlockedID:
			ids = append(ids, bl.BlockerID)
		}
	}
	return ids, nil
}

type fakeAuditRepo struct{ *store }

func (r fakeAuditRepo) CreateLog(_ context.Context, l *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = int64(len(r.audit) + 1)
	cp := *l
	r.audit = append(r.audit, &cp)
	return nil
}

func (r fakeAuditRepo) ListByEvent(_ context.Context, eventID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(r.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if l := r.audit[i]; l.EventID != nil && *l.EventID == eventID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePresenceRepo struct{ *store }

func (r fakePresenceRepo) Touch(_ context.Context, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen[userID] = at
	return nil
}

func (r fakePresenceRepo) LastSeen(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]time.Time)
	for _, id := range ids {
		if at, ok := r.lastSeen[id]; ok {
			out[id] = at
		}
	}
	return out, nil
}

// fakeRateLimitRepo keeps counters without expiry; tests reset them by hand.
type fakeRateLimitRepo struct{ *store }

func (r fakeRateLimitRepo) CheckLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key] < int64(limit), nil
}

func (r fakeRateLimitRepo) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key]++
	return r.counters[key], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []*domain.ChatMessage
	deleted  []uuid.UUID
	private  []*domain.PrivateMessage
	senderOf map[uuid.UUID]string
}

func (n *recordingNotifier) EventMessageSent(_ *domain.Event, msg *domain.ChatMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) EventMessageDeleted(_, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, messageID)
}

func (n *recordingNotifier) PrivateMessageSent(msg *domain.PrivateMessage, senderName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.senderOf == nil {
		n.senderOf = make(map[uuid.UUID]string)
	}
	n.private = append(n.private, msg)
	n.senderOf[msg.ID] = senderName
}

type harness struct {
	store      *store
	clock      *clockwork.FakeClock
	notifier   *recordingNotifier
	cfg        config.ChatConfig
	access     AccessService
	moderation ModerationService
	chat       ChatService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st := newStore()
	clock := clockwork.NewFakeClockAt(testStart)
	notifier := &recordingNotifier{}
	cfg := config.DefaultChat()
	log := logger.NewNop()

	access := NewAccessService(fakeEventRepo{st}, fakeUserRepo{st}, log)
	audit := NewAuditService(fakeAuditRepo{st}, clock, log)
	moderation := NewModerationService(
		fakeChatRepo{st}, fakeMuteRepo{st}, fakeUserRepo{st},
		access, audit, notifier, cfg.DefaultMuteDuration, clock, log,
	)
	chat := NewChatService(ChatDeps{
		ChatRepo:    fakeChatRepo{st},
		PrivateRepo: fakePrivateRepo{st},
		EventRepo:   fakeEventRepo{st},
		UserRepo:    fakeUserRepo{st},
		SocialRepo:  fakeSocialRepo{st},
		Access:      access,
		Moderation:  moderation,
		Presence:    NewPresenceService(fakePresenceRepo{st}, cfg.OnlineWindow, clock, log),
		RateLimit:   NewRateLimitService(fakeRateLimitRepo{st}, log),
		Notifier:    notifier,
	}, cfg, clock, log)

	return &harness{
		store:      st,
		clock:      clock,
		notifier:   notifier,
		cfg:        cfg,
		access:     access,
		moderation: moderation,
		chat:       chat,
	}
}
