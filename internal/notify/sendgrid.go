// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridConfig holds the account and template used for OTP emails.
type SendGridConfig struct {
	APIKey     string
	FromEmail  string
	FromName   string
	TemplateID string

	// Host overrides the API host; empty means the public SendGrid API.
	Host string
}

// SendGridSender delivers email codes through a SendGrid dynamic template.
type SendGridSender struct {
	client *sendgrid.Client
	config SendGridConfig
}

// NewSendGridSender builds a sender for config.
func NewSendGridSender(config SendGridConfig) *SendGridSender {
	host := config.Host
	if host == "" {
		host = "https://api.sendgrid.com"
	}

	request := sendgrid.GetRequest(config.APIKey, sendGridEndpoint, host)
	request.Method = http.MethodPost

	return &SendGridSender{client: &sendgrid.Client{Request: request}, config: config}
}

// Send posts one templated email; the code is exposed to the template as "OTP".
func (sender *SendGridSender) Send(ctx context.Context, message Message) error {
	if message.Recipient.Email == "" {
		return errors.New("notify: email recipient is empty")
	}

	email := mail.NewV3Mail()
	email.SetFrom(mail.NewEmail(sender.config.FromName, sender.config.FromEmail))
	email.SetTemplateID(sender.config.TemplateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(message.Recipient.Name, message.Recipient.Email))
	personalization.SetDynamicTemplateData("OTP", message.OTP)
	email.AddPersonalizations(personalization)

	response, err := sender.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("notify_sendgrid_send_failed: %w", err)
	}
	if response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify_sendgrid_rejected: status %d", response.StatusCode)
	}
	return nil
}
