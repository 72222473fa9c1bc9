package service

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"event_chat/internal/domain"
	"event_chat/internal/notification"
	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

const pushPreviewLength = 100

// Broadcaster pushes chat changes to live subscribers of an event.
type Broadcaster interface {
	BroadcastEventMessage(msg *domain.ChatMessage)
	BroadcastMessageDeleted(eventID, messageID uuid.UUID)
}

// Notifier fans chat activity out to side channels. Every method returns
// immediately; delivery failures are logged and never reach the caller.
type Notifier interface {
	EventMessageSent(event *domain.Event, msg *domain.ChatMessage)
	EventMessageDeleted(eventID, messageID uuid.UUID)
	PrivateMessageSent(msg *domain.PrivateMessage, senderName string)
}

type PushNotifier struct {
	push        notification.Client
	broadcaster Broadcaster
	eventRepo   repository.EventRepository
	timeout     time.Duration
	log         logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPushNotifier(push notification.Client, broadcaster Broadcaster, eventRepo repository.EventRepository, timeout time.Duration, log logger.Logger) *PushNotifier {
	if !push.Configured() {
		log.Warn("Push notifications are not configured, only live broadcasts will be sent")
	}
	return &PushNotifier{
		push:        push,
		broadcaster: broadcaster,
		eventRepo:   eventRepo,
		timeout:     timeout,
		log:         log,
	}
}

func (n *PushNotifier) EventMessageSent(event *domain.Event, msg *domain.ChatMessage) {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastEventMessage(msg)
	}

	n.dispatch("event_message", func(ctx context.Context) error {
		holders, err := n.eventRepo.ListTicketHolderIDs(ctx, event.ID)
		if err != nil {
			return err
		}

		recipients := make([]string, 0, len(holders))
		for _, id := range holders {
			if id != msg.SenderID {
				recipients = append(recipients, id.String())
			}
		}

		return n.push.Send(ctx, notification.Notification{
			ExternalIDs: recipients,
			Heading:     event.Title,
			Content:     preview(msg.SenderName, msg.Message),
			Data: map[string]string{
				"type":       "event_message",
				"event_id":   event.ID.String(),
				"message_id": msg.ID.String(),
			},
		})
	})
}

func (n *PushNotifier) EventMessageDeleted(eventID, messageID uuid.UUID) {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastMessageDeleted(eventID, messageID)
	}
}

func (n *PushNotifier) PrivateMessageSent(msg *domain.PrivateMessage, senderName string) {
	n.dispatch("private_message", func(ctx context.Context) error {
		return n.push.Send(ctx, notification.Notification{
			ExternalIDs: []string{msg.ReceiverID.String()},
			Heading:     senderName,
			Content:     preview("", msg.Message),
			Data: map[string]string{
				"type":       "private_message",
				"sender_id":  msg.SenderID.String(),
				"message_id": msg.ID.String(),
			},
		})
	})
}

// Wait stops accepting new deliveries and blocks until in-flight ones
// finish. Called on shutdown; later sends are dropped with a log line.
func (n *PushNotifier) Wait() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	n.wg.Wait()
}

func (n *PushNotifier) dispatch(kind string, send func(ctx context.Context) error) {
	if !n.push.Configured() {
		n.log.Debug("Skipping push notification", "kind", kind, "reason", notification.ErrNotConfigured.Error())
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.Warn("Dropping push notification after shutdown", "kind", kind)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()

		// detached from the request: the sender may already have its response
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			if errors.Is(err, notification.ErrNotConfigured) {
				n.log.Debug("Skipping push notification", "kind", kind, "reason", err.Error())
				return
			}
			n.log.Error("Failed to send push notification", "kind", kind, "error", err)
		}
	}()
}

func preview(sender, text string) string {
	if utf8.RuneCountInString(text) > pushPreviewLength {
		runes := []rune(text)
		text = string(runes[:pushPreviewLength]) + "…"
	}
	if sender == "" {
		return text
	}
	return sender + ": " + text
}
