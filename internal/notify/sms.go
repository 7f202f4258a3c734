// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	smsServiceType = "otpmsg"
	smsTimeout     = 10 * time.Second
)

// SMSConfig holds the gateway credentials.
type SMSConfig struct {
	GatewayURL string
	Username   string
	Password   string
	SenderID   string
	APIKey     string
	TemplateID string
}

// SMSSender posts signed OTP messages to the government SMS gateway.
//
// The password travels as its SHA-1 hex digest and every request carries a SHA-512
// key over username, sender id, content and API key.
type SMSSender struct {
	client *http.Client
	config SMSConfig
}

// NewSMSSender builds a sender for config. A nil client selects a default with a timeout.
func NewSMSSender(config SMSConfig, client *http.Client) *SMSSender {
	if client == nil {
		client = &http.Client{Timeout: smsTimeout}
	}
	return &SMSSender{client: client, config: config}
}

// Send delivers message.OTP to message.Recipient.Phone.
func (sender *SMSSender) Send(ctx context.Context, message Message) error {
	if message.Recipient.Phone == "" {
		return errors.New("notify: sms recipient is empty")
	}

	content := SMSText(message.Purpose, message.Recipient.Name, message.OTP)
	form := sender.Form(content, message.Recipient.Phone)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, sender.config.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify_sms_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := sender.client.Do(request)
	if err != nil {
		return fmt.Errorf("notify_sms_send_failed: %w", err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify_sms_rejected: status %d", response.StatusCode)
	}
	return nil
}

// Form builds the signed gateway fields for content sent to mobile.
func (sender *SMSSender) Form(content, mobile string) url.Values {
	config := sender.config
	passwordDigest := sha1.Sum([]byte(strings.TrimSpace(config.Password)))
	key := sha512.Sum512([]byte(config.Username + config.SenderID + content + config.APIKey))

	return url.Values{
		"username":       {strings.TrimSpace(config.Username)},
		"password":       {hex.EncodeToString(passwordDigest[:])},
		"senderid":       {strings.TrimSpace(config.SenderID)},
		"content":        {strings.TrimSpace(content)},
		"smsservicetype": {smsServiceType},
		"mobileno":       {strings.TrimSpace(mobile)},
		"key":            {hex.EncodeToString(key[:])},
		"templateid":     {strings.TrimSpace(config.TemplateID)},
	}
}
