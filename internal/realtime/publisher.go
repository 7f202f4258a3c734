// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// Channel returns the pub/sub channel carrying room.
func Channel(room string) string {
	return constants.RedisChannelPrefix + room
}

// # Redis

// RedisPublisher publishes each event on the channel of its room.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher binds the publisher to client.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends event to every subscribed replica.
func (publisher *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime_redis_encode_failed: %w", err)
	}
	if err := publisher.client.Publish(ctx, Channel(event.Room), payload).Err(); err != nil {
		return fmt.Errorf("realtime_redis_publish_failed: %w", err)
	}
	return nil
}

// # Kafka

// KafkaPublisher appends events to a topic for downstream consumers.
// Events are keyed by room so each room keeps its order within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a synchronous writer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}}
}

// Publish writes event and waits for the broker acknowledgement.
func (publisher *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime_kafka_encode_failed: %w", err)
	}

	err = publisher.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Room),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Name)},
		},
	})
	if err != nil {
		return fmt.Errorf("realtime_kafka_publish_failed: %w", err)
	}
	return nil
}

// Close flushes pending writes.
func (publisher *KafkaPublisher) Close() error {
	return publisher.writer.Close()
}

// # Fan-out

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

// Publish hands event to each publisher in order; one failure does not stop the rest.
func (fanout Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, publisher := range fanout {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
