package events

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

// Enqueuer is the subset of *asynq.Client used to schedule deliveries.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskScheduler enqueues every event as an asynq task named after its topic.
// The event id doubles as the task id so re-emitting an event is a no-op.
type TaskScheduler struct {
	Client      Enqueuer
	Queue       string
	MaxRetry    int
	Retention   time.Duration
	SkipUnknown bool
}

// Schedule implements DeliveryScheduler.
func (s TaskScheduler) Schedule(ctx context.Context, event Event) error {
	if s.Client == nil {
		return errors.New("events: task client not configured")
	}
	if s.SkipUnknown && !known(event.Topic) {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(event.ID)}
	if s.Queue != "" {
		opts = append(opts, asynq.Queue(s.Queue))
	}
	if s.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(s.MaxRetry))
	}
	if s.Retention > 0 {
		opts = append(opts, asynq.Retention(s.Retention))
	}
	_, err = s.Client.EnqueueContext(ctx, asynq.NewTask(TaskType(event.Topic), body), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// Decode parses the event carried by a task payload.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	if ev.Topic == "" || ev.ID == "" {
		return Event{}, errors.New("events: task payload is missing id or topic")
	}
	return ev, nil
}

func known(topic string) bool {
	for _, t := range DefaultTopics() {
		if t == topic {
			return true
		}
	}
	return false
}
