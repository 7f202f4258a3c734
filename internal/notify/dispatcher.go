// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher routes messages to channel senders asynchronously.
type Dispatcher struct {
	senders  map[Channel]Sender
	observer Observer
	logger   *slog.Logger
	timeout  time.Duration
	inflight sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Channels without a sender are dropped with a warning.
func NewDispatcher(email, sms Sender, observer Observer, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	senders := make(map[Channel]Sender, 2)
	if email != nil {
		senders[ChannelEmail] = email
	}
	if sms != nil {
		senders[ChannelSMS] = sms
	}

	return &Dispatcher{
		senders:  senders,
		observer: observer,
		logger:   logger,
		timeout:  timeout,
	}
}

// Dispatch hands message to its sender on a new goroutine and returns immediately.
//
// The delivery runs on a context detached from ctx so a finished HTTP request does
// not cancel it; the dispatcher timeout bounds it instead.
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, message Message) {
	dispatcher.inflight.Add(1)

	go func() {
		defer dispatcher.inflight.Done()

		deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatcher.timeout)
		defer cancel()

		err := dispatcher.Send(deliveryCtx, message)
		if dispatcher.observer != nil {
			dispatcher.observer.Notification(string(message.Channel), err)
		}

		if err != nil {
			dispatcher.logger.Warn("otp_notification_failed",
				slog.String("channel", string(message.Channel)),
				slog.String("purpose", string(message.Purpose)),
				slog.Any("error", err),
			)
			return
		}

		dispatcher.logger.Info("otp_notification_sent",
			slog.String("channel", string(message.Channel)),
			slog.String("purpose", string(message.Purpose)),
		)
	}()
}

// Send delivers message synchronously.
func (dispatcher *Dispatcher) Send(ctx context.Context, message Message) error {
	sender, ok := dispatcher.senders[message.Channel]
	if !ok {
		return fmt.Errorf("notify: no sender for channel %q", message.Channel)
	}
	return sender.Send(ctx, message)
}

// Wait blocks until every in-flight delivery has finished.
func (dispatcher *Dispatcher) Wait() {
	dispatcher.inflight.Wait()
}
