// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the logger instead of delivering them.
//
// It stands in for a channel whose provider is not configured. The code itself
// is logged at debug level only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that logs through logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs message and never fails.
func (sender *LogSender) Send(ctx context.Context, message Message) error {
	recipient := message.Recipient.Email
	if message.Channel == ChannelSMS {
		recipient = message.Recipient.Phone
	}

	sender.logger.DebugContext(ctx, "otp_notification_logged",
		slog.String("channel", string(message.Channel)),
		slog.String("purpose", string(message.Purpose)),
		slog.String("recipient", recipient),
		slog.String("otp", message.OTP),
	)
	return nil
}
