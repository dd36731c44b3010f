// Package events fans out domain events to downstream notifiers. Events are
// ephemeral: the flat-file store keeps no event log, so notifiers that need
// durability must persist on their own.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

// Event is one emitted domain event.
type Event struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	CompanyID   string          `json:"companyId"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Notifier reacts to emitted events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus dispatches events to all configured notifiers. Notifier failures are
// joined and reported but never abort the emitting operation.
type Bus struct {
	Notifiers []Notifier
}

// Emit builds the event envelope and fans it out.
func (b *Bus) Emit(ctx context.Context, topic, aggregateID string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	companyID, _ := tenant.From(ctx)
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		CompanyID:   companyID,
		AggregateID: aggregateID,
		Payload:     encoded,
		OccurredAt:  time.Now().UTC(),
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	switch v := payload.(type) {
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append(json.RawMessage(nil), v...), nil
	case []byte:
		return encodePayload(json.RawMessage(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("company_id", event.CompanyID).
		Str("aggregate_id", event.AggregateID).
		Time("occurred_at", event.OccurredAt).
		Msg("domain event")
	return nil
}

// RedisNotifier publishes events on a per-company Redis channel so other
// processes (or browser push bridges) can subscribe to live changes.
type RedisNotifier struct {
	Client  *redis.Client
	Channel string
}

// Notify implements Notifier.
func (n RedisNotifier) Notify(ctx context.Context, event Event) error {
	if n.Client == nil {
		return nil
	}
	channel := n.Channel
	if channel == "" {
		channel = "events"
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.Client.Publish(ctx, tenant.PrefixKey(event.CompanyID, channel), data).Err()
}
