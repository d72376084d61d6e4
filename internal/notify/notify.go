// Package notify delivers tenant-facing domain events.
package notify

import (
	"context"
	"errors"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
)

// EventSink receives events after the change that raised them committed.
type EventSink interface {
	Publish(ctx context.Context, tenantID uuid.UUID, ev domain.Event) error
}

// eventAttributes copies ev.Attributes and adds the event type.
func eventAttributes(ev domain.Event) map[string]string {
	attrs := make(map[string]string, len(ev.Attributes)+1)
	for k, v := range ev.Attributes {
		attrs[k] = v
	}
	attrs["type"] = string(ev.Type)
	return attrs
}

// StoreSink keeps events as in-app notifications.
type StoreSink struct {
	notes repository.NotificationRepository
	now   func() time.Time
}

func NewStoreSink(notes repository.NotificationRepository) *StoreSink {
	return &StoreSink{notes: notes, now: time.Now}
}

func (s *StoreSink) Publish(ctx context.Context, tenantID uuid.UUID, ev domain.Event) error {
	createdAt := ev.OccurredAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	return s.notes.Create(ctx, &domain.Notification{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Title:      ev.Title,
		Message:    ev.Message,
		Attributes: eventAttributes(ev),
		CreatedAt:  createdAt,
	})
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSink sends events to the tenant's FCM topic.
type PushSink struct {
	client messagingClient
}

func NewPushSink(ctx context.Context, app *firebase.App) (*PushSink, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &PushSink{client: client}, nil
}

// TopicFor names the FCM topic a tenant's devices subscribe to.
func TopicFor(tenantID uuid.UUID) string {
	return "tenant-" + tenantID.String()
}

func (s *PushSink) Publish(ctx context.Context, tenantID uuid.UUID, ev domain.Event) error {
	topic := TopicFor(tenantID)
	logger.ExternalServiceCall("fcm", "Send", "topic", topic, "type", ev.Type)
	id, err := s.client.Send(ctx, &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: ev.Title,
			Body:  ev.Message,
		},
		Data: eventAttributes(ev),
	})
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	return err
}

// FanOut publishes to every sink and joins their errors.
type FanOut []EventSink

func (f FanOut) Publish(ctx context.Context, tenantID uuid.UUID, ev domain.Event) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(ctx, tenantID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
