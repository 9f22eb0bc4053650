package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/events"
)

func taskFor(t *testing.T, ev events.Event) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return asynq.NewTask(events.TaskType(ev.Topic), body)
}

func TestProcessorDispatchesByTopic(t *testing.T) {
	var seen []string
	p := events.Processor{Handlers: map[string]events.HandlerFunc{
		events.TopicDiscountRedeemed: func(_ context.Context, ev events.Event) error {
			seen = append(seen, ev.AggregateID)
			return nil
		},
	}}

	redeemed := events.Event{ID: "ev-1", Topic: events.TopicDiscountRedeemed, AggregateID: "GIFT50", Payload: json.RawMessage(`{}`)}
	require.NoError(t, p.ProcessTask(context.Background(), taskFor(t, redeemed)))

	created := events.Event{ID: "ev-2", Topic: events.TopicOrderCreated, AggregateID: "order-1", Payload: json.RawMessage(`{}`)}
	require.NoError(t, p.ProcessTask(context.Background(), taskFor(t, created)))

	require.Equal(t, []string{"GIFT50"}, seen)
}

func TestProcessorSkipsRetryForBadPayload(t *testing.T) {
	p := events.Processor{}
	err := p.ProcessTask(context.Background(), asynq.NewTask("order:created", []byte(`garbage`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessorReturnsHandlerError(t *testing.T) {
	boom := errors.New("downstream unavailable")
	p := events.Processor{Handlers: map[string]events.HandlerFunc{
		events.TopicOrderCreated: func(context.Context, events.Event) error { return boom },
	}}
	ev := events.Event{ID: "ev-3", Topic: events.TopicOrderCreated, AggregateID: "order-9", Payload: json.RawMessage(`{}`)}
	require.ErrorIs(t, p.ProcessTask(context.Background(), taskFor(t, ev)), boom)
}

func TestProcessorRegistersDefaultTopics(t *testing.T) {
	mux := asynq.NewServeMux()
	events.Processor{}.Register(mux)
	for _, topic := range events.DefaultTopics() {
		_, pattern := mux.Handler(asynq.NewTask(events.TaskType(topic), nil))
		require.Equal(t, events.TaskType(topic), pattern)
	}
}
