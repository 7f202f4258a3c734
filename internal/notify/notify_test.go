// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ownerauth/internal/notify"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestSMSSender_SignsRequest checks the gateway form fields and both digests.
*/
func TestSMSSender_SignsRequest(t *testing.T) {
	var method string
	var form map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.NoError(t, request.ParseForm())
		method = request.Method
		form = request.PostForm
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := notify.SMSConfig{
		GatewayURL: server.URL,
		Username:   "cms",
		Password:   "secret",
		SenderID:   "KACEG",
		APIKey:     "api-key",
		TemplateID: "tpl-1",
	}
	sender := notify.NewSMSSender(config, server.Client())

	err := sender.Send(context.Background(), notify.Message{
		Channel:   notify.ChannelSMS,
		Purpose:   notify.PurposeVerifyPhone,
		Recipient: notify.Recipient{Name: "asha", Phone: "9876543210"},
		OTP:       "123456",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)

	content := "Dear asha, 123456 is the OTP to validate your mobile number in the CMS. Regards, Centre for e-Governence, Govt.of karnataka."
	passwordDigest := sha1.Sum([]byte("secret"))
	key := sha512.Sum512([]byte("cms" + "KACEG" + content + "api-key"))

	assert.Equal(t, content, form["content"][0])
	assert.Equal(t, hex.EncodeToString(passwordDigest[:]), form["password"][0])
	assert.Equal(t, hex.EncodeToString(key[:]), form["key"][0])
	assert.Equal(t, "otpmsg", form["smsservicetype"][0])
	assert.Equal(t, "9876543210", form["mobileno"][0])
	assert.Equal(t, "tpl-1", form["templateid"][0])
}

/*
TestSMSSender_GatewayError checks that non-2xx replies surface as errors.
*/
func TestSMSSender_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := notify.NewSMSSender(notify.SMSConfig{GatewayURL: server.URL}, server.Client())
	err := sender.Send(context.Background(), notify.Message{
		Channel:   notify.ChannelSMS,
		Recipient: notify.Recipient{Phone: "9876543210"},
	})
	assert.Error(t, err)

	err = sender.Send(context.Background(), notify.Message{Channel: notify.ChannelSMS})
	assert.Error(t, err, "empty phone must fail before any request")
}

/*
TestSendGridSender_PostsTemplate checks the mail payload and authorization header.
*/
func TestSendGridSender_PostsTemplate(t *testing.T) {
	var path, authorization string
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		path = request.URL.Path
		authorization = request.Header.Get("Authorization")
		_ = json.NewDecoder(request.Body).Decode(&payload)
		writer.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:     "sg-key",
		FromEmail:  "noreply@cms.example",
		FromName:   "CMS",
		TemplateID: "d-otp",
		Host:       server.URL,
	})

	err := sender.Send(context.Background(), notify.Message{
		Channel:   notify.ChannelEmail,
		Purpose:   notify.PurposeVerifyEmail,
		Recipient: notify.Recipient{Name: "asha", Email: "asha@cms.example"},
		OTP:       "654321",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v3/mail/send", path)
	assert.Equal(t, "Bearer sg-key", authorization)
	assert.Equal(t, "d-otp", payload["template_id"])

	personalizations := payload["personalizations"].([]any)
	require.Len(t, personalizations, 1)
	data := personalizations[0].(map[string]any)["dynamic_template_data"].(map[string]any)
	assert.Equal(t, "654321", data["OTP"])
}

// recordingSender captures messages and optionally fails.
type recordingSender struct {
	mutex    sync.Mutex
	messages []notify.Message
	err      error
}

func (sender *recordingSender) Send(_ context.Context, message notify.Message) error {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	sender.messages = append(sender.messages, message)
	return sender.err
}

// recordingObserver captures delivery outcomes.
type recordingObserver struct {
	mutex    sync.Mutex
	outcomes map[string]int
}

func (observer *recordingObserver) Notification(channel string, err error) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	if err != nil {
		channel += ":failed"
	}
	observer.outcomes[channel]++
}

/*
TestDispatcher_RoutesByChannel checks async routing and outcome reporting.
*/
func TestDispatcher_RoutesByChannel(t *testing.T) {
	email := &recordingSender{}
	sms := &recordingSender{err: errors.New("gateway down")}
	observer := &recordingObserver{outcomes: map[string]int{}}

	dispatcher := notify.NewDispatcher(email, sms, observer, discard, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Dispatch(ctx, notify.Message{Channel: notify.ChannelEmail, OTP: "111111"})
	dispatcher.Dispatch(ctx, notify.Message{Channel: notify.ChannelSMS, OTP: "222222"})
	cancel()
	dispatcher.Wait()

	require.Len(t, email.messages, 1)
	assert.Equal(t, "111111", email.messages[0].OTP)
	require.Len(t, sms.messages, 1)
	assert.Equal(t, 1, observer.outcomes["email"])
	assert.Equal(t, 1, observer.outcomes["sms:failed"])
}

/*
TestDispatcher_MissingSender checks that an unconfigured channel is an error, not a panic.
*/
func TestDispatcher_MissingSender(t *testing.T) {
	dispatcher := notify.NewDispatcher(notify.NewLogSender(discard), nil, nil, discard, time.Second)

	assert.NoError(t, dispatcher.Send(context.Background(), notify.Message{Channel: notify.ChannelEmail}))
	assert.Error(t, dispatcher.Send(context.Background(), notify.Message{Channel: notify.ChannelSMS}))
}
