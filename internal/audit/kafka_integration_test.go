//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/notorious-utopia/egrn/internal/audit"
	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/testutil/containers"
)

func TestKafkaSinkPublishesTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)
	const topic = "egrn.order-transitions.test"

	sink, err := audit.NewKafkaSink(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer sink.Close()

	orderID := id.NewOrderID()
	event := audit.Event{
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
		OrderID:    orderID,
		ExternalID: "EXT-kafka-1",
		Username:   "alice",
		Action:     audit.ActionOrderCompleted,
		OldStatus:  "В работе",
		NewStatus:  "Завершен",
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("EXT-kafka-1"), records[0].Key, "keyed by external id for per-order ordering")

	decoded, err := audit.DecodeKafkaEvent(records[0].Value)
	require.NoError(t, err)
	assert.Equal(t, event.OrderID, decoded.OrderID)
	assert.Equal(t, audit.ActionOrderCompleted, decoded.Action)
	assert.Equal(t, "Завершен", decoded.NewStatus)
}
