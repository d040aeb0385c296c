package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Tail reads events from topic, starting at the newest offset, and hands each
// one to fn until ctx is cancelled or fn returns an error.
func Tail(ctx context.Context, brokers []string, topic string, fn func(key string, ev Event) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka: read failed: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			continue
		}
		if err := fn(string(m.Key), ev); err != nil {
			return err
		}
	}
}
