// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package realtime carries domain events from the services to connected dashboards.

Architecture:

  - Publisher: Services emit an [Event] through a small interface and never see
    sockets. [RedisPublisher], [KafkaPublisher] and [Fanout] implement it.
  - Hub: Owns websocket clients grouped by room.
  - Bridge: Subscribes to the redis channels and pushes each event into the [Hub],
    so every API replica reaches every connected client.
*/
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one room-scoped notification.
type Event struct {
	Room       string          `json:"room"`
	Name       string          `json:"event"`
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent builds an event whose payload is data encoded as JSON.
func NewEvent(room, name string, data any) (Event, error) {
	event := Event{Room: room, Name: name, OccurredAt: time.Now().UTC()}
	if data == nil {
		return event, nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	event.Data = payload
	return event, nil
}

// Publisher emits events to whatever transport backs it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
