package mykafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.PublishEvent(context.Background(), "shop_events", "u1", Event{Type: EventOrderPlaced}))
	assert.NoError(t, n.Close())
}

func TestEvent_OmitsUnusedFields(t *testing.T) {
	ev := Event{
		Type:      EventBasketItemRemoved,
		UserID:    "barista",
		ProductID: "7",
		At:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"basket_item_removed","user_id":"barista","product_id":"7","at":"2024-01-02T03:04:05Z"}`, string(data))
}

func TestPublishEvent_UnencodableEvent(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"})
	defer p.Close()

	err := p.PublishEvent(context.Background(), "shop_events", "u1", make(chan int))
	assert.ErrorContains(t, err, "json.Marshal failed")
}
