package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.events = append(n.events, event)
	return n.err
}

func TestEmitFansOut(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	bus := &Bus{Notifiers: []Notifier{first, second}}

	ctx := tenant.With(context.Background(), "acme")
	ev, err := bus.Emit(ctx, TopicOrderCreated, "ord-1", map[string]any{"total": "170"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, "acme", ev.CompanyID)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.JSONEq(t, `{"total":"170"}`, string(first.events[0].Payload))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: boom}
	bus := &Bus{Notifiers: []Notifier{bad, ok}}

	_, err := bus.Emit(context.Background(), TopicOrderUpdated, "ord-1", nil)
	require.ErrorIs(t, err, boom)
	// the healthy notifier still received the event
	require.Len(t, ok.events, 1)
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := &Bus{}
	_, err := bus.Emit(context.Background(), "  ", "ord-1", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := &Bus{}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, "ord-1", json.RawMessage("{broken"))
	require.Error(t, err)
}
