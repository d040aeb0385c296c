package service

import (
	"context"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

type events struct {
	pub   Publisher
	topic string
}

// emit publishes ev keyed by key. Failures are logged and never reach the
// caller: the store write that produced the event has already happened.
func (e events) emit(ctx context.Context, key string, ev mykafka.Event) {
	if e.pub == nil {
		return
	}
	if err := e.pub.PublishEvent(ctx, e.topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			"topic", e.topic, "type", ev.Type, "key", key, "error", err)
	}
}
