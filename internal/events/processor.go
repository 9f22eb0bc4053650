package events

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
)

// HandlerFunc reacts to one decoded event.
type HandlerFunc func(ctx context.Context, event Event) error

// Processor consumes the tasks enqueued by TaskScheduler.
type Processor struct {
	Logger *zerolog.Logger
	// Handlers are keyed by topic. Topics without a handler are only logged.
	Handlers map[string]HandlerFunc
}

// Register binds every default topic to the mux.
func (p Processor) Register(mux *asynq.ServeMux) {
	for _, topic := range DefaultTopics() {
		mux.HandleFunc(TaskType(topic), p.ProcessTask)
	}
}

// ProcessTask implements asynq.HandlerFunc. Undecodable payloads are not retried.
func (p Processor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	event, err := Decode(task.Payload())
	if err != nil {
		obs.CountTask(task.Type(), "invalid")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if p.Logger != nil {
		p.Logger.Info().
			Str("task", task.Type()).
			Str("event_id", event.ID).
			Str("aggregate_id", event.AggregateID).
			RawJSON("payload", event.Payload).
			Msg("event received")
	}
	if handle, ok := p.Handlers[event.Topic]; ok && handle != nil {
		if err := handle(ctx, event); err != nil {
			obs.CountTask(task.Type(), "error")
			return err
		}
	}
	obs.CountTask(task.Type(), "ok")
	return nil
}
