// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// Bridge relays every realtime channel of redis into the local [Hub].
type Bridge struct {
	client redis.UniversalClient
	hub    *Hub
	logger *slog.Logger
}

// NewBridge wires client to hub.
func NewBridge(client redis.UniversalClient, hub *Hub, logger *slog.Logger) *Bridge {
	return &Bridge{client: client, hub: hub, logger: logger}
}

// Run subscribes and relays until ctx is cancelled.
func (bridge *Bridge) Run(ctx context.Context) error {
	subscription := bridge.client.PSubscribe(ctx, constants.RedisChannelPrefix+"*")
	defer subscription.Close()

	if _, err := subscription.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("realtime_bridge_subscribe_failed: %w", err)
	}
	bridge.logger.Info("realtime_bridge_started")

	messages := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			bridge.logger.Info("realtime_bridge_stopped")
			return nil

		case message, ok := <-messages:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				bridge.logger.Warn("realtime_bridge_decode_failed",
					slog.String("channel", message.Channel),
					slog.Any("error", err),
				)
				continue
			}

			delivered := bridge.hub.Broadcast(event)
			bridge.logger.Debug("realtime_event_relayed",
				slog.String("room", event.Room),
				slog.String("event", event.Name),
				slog.Int("clients", delivered),
			)
		}
	}
}
