package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// KafkaSink exports audit events to a Kafka topic so downstream consumers
// (reporting, alerting) can follow order transitions without touching our
// database. Keyed by external order id to keep per-order ordering.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// kafkaEvent is the wire form of an Event.
type kafkaEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	OrderID    string    `json:"order_id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientInfo string    `json:"client_info,omitempty"`
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, resp.Err)
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(kafkaEvent{
		Timestamp:  event.Timestamp,
		OrderID:    event.OrderID.String(),
		ExternalID: event.ExternalID,
		Username:   event.Username,
		Action:     string(event.Action),
		OldStatus:  event.OldStatus,
		NewStatus:  event.NewStatus,
		RequestID:  event.RequestID,
		ClientInfo: event.ClientInfo,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ExternalID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}

// DecodeKafkaEvent parses a record value back into an Event. Used by
// consumers and integration tests.
func DecodeKafkaEvent(value []byte) (Event, error) {
	var ke kafkaEvent
	if err := json.Unmarshal(value, &ke); err != nil {
		return Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	orderID, err := id.ParseOrderID(ke.OrderID)
	if err != nil {
		return Event{}, fmt.Errorf("decode audit event order id: %w", err)
	}
	return Event{
		Timestamp:  ke.Timestamp,
		OrderID:    orderID,
		ExternalID: ke.ExternalID,
		Username:   ke.Username,
		Action:     Action(ke.Action),
		OldStatus:  ke.OldStatus,
		NewStatus:  ke.NewStatus,
		RequestID:  ke.RequestID,
		ClientInfo: ke.ClientInfo,
	}, nil
}
