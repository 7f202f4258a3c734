// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers one-time codes to owners by email and SMS.

Architecture:

  - Sender: One implementation per channel ([SendGridSender], [SMSSender], [LogSender]).
  - Dispatcher: Routes a [Message] to its channel sender on a background goroutine so
    delivery never blocks or rolls back the caller.

Delivery outcomes are reported to an optional [Observer] and logged; they are never
returned to the request that triggered them.
*/
package notify

import (
	"context"
	"fmt"
)

// # Messages

// Channel is the delivery medium of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Purpose selects the wording of a message.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposeVerifyPhone   Purpose = "verify_phone"
	PurposeResetPassword Purpose = "reset_password"
)

// Recipient identifies who receives a code.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Message is one code delivery.
type Message struct {
	Channel   Channel
	Purpose   Purpose
	Recipient Recipient
	OTP       string
}

// Sender delivers a message over a single channel.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// Observer receives the outcome of each delivery.
type Observer interface {
	Notification(channel string, err error)
}

// SMSText renders the gateway message body for purpose.
func SMSText(purpose Purpose, name, otp string) string {
	switch purpose {
	case PurposeResetPassword:
		return fmt.Sprintf("Dear %s, %s is the OTP to reset your password in the CMS. Regards, Centre for e-Governence, Govt.of karnataka.", name, otp)
	default:
		return fmt.Sprintf("Dear %s, %s is the OTP to validate your mobile number in the CMS. Regards, Centre for e-Governence, Govt.of karnataka.", name, otp)
	}
}
