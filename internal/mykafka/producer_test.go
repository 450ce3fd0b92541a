package mykafka

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shirin_shop/pkg/config"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var n Nop
	assert.NoError(t, n.PublishEvent(context.Background(), "cart_events", "1", map[string]any{"x": 1}))
	assert.NoError(t, n.Close())
}

func TestPublishEvent_MarshalError(t *testing.T) {
	t.Parallel()

	p, err := NewProducer([]string{"127.0.0.1:1"})
	require.NoError(t, err)
	defer p.Close()

	err = p.PublishEvent(context.Background(), "cart_events", "1", map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "json.Marshal")
}

func ensureTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafka.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	admin, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer admin.Close()

	require.NoError(t, admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// Runs against a real broker when SHOP_TEST_KAFKA_BROKERS is set.
func TestPublishEvent_RoundTrip(t *testing.T) {
	brokers := config.CSV(os.Getenv("SHOP_TEST_KAFKA_BROKERS"))
	if len(brokers) == 0 {
		t.Skip("SHOP_TEST_KAFKA_BROKERS not set")
	}
	topic := fmt.Sprintf("cart_events_test_%d", time.Now().UnixNano())
	ensureTopic(t, brokers[0], topic)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	p, err := NewProducer(brokers)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.PublishEvent(ctx, topic, "42", map[string]any{"type": "cart_cleared", "user_id": 42}))

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()

	m, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", string(m.Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &event))
	assert.Equal(t, "cart_cleared", event["type"])
}
