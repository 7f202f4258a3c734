// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provision mirrors a freshly verified owner into the downstream user
registries and records the login activity.

The chain runs in a fixed order and stops at the first failure:

 1. UA master: POST {ua}/user
 2. Activity service: POST {activity}/activity/login
 3. Media master: POST {media}/user

A mirror answering 403 already holds the user and counts as success. A step whose
base URL is empty is skipped.
*/
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	userTypeOwner  = "OWNER"
	requestTimeout = 10 * time.Second
)

// # Payloads

// Profile is the owner data mirrored downstream.
type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Email     string `json:"email_id"`
	Phone     string `json:"phone_number"`
	Avatar    string `json:"avatar"`
}

// Location is the client-reported geolocation of a login.
type Location struct {
	IPAddress   string `json:"ip_address"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	State       string `json:"state"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

type mirrorUser struct {
	Profile
	UserType      string `json:"user_type"`
	ActivityOwner string `json:"activity_owner,omitempty"`
	ContentOwner  string `json:"content_owner,omitempty"`
}

type loginActivity struct {
	Location
	ActivityBy    string `json:"activity_by"`
	User          string `json:"user"`
	ActivityOwner string `json:"activity_owner"`
}

// # Client

// Config holds the base URLs of the mirrors.
type Config struct {
	UAMasterURL    string
	ActivityURL    string
	MediaMasterURL string

	// ServiceToken replaces the owner's own token on mirror calls when set.
	ServiceToken string
}

// Client runs the mirroring chain.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// NewClient builds a client. A nil httpClient selects a default with a timeout.
func NewClient(config Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{http: httpClient, config: config, logger: logger}
}

// Provision mirrors profile and records a login from location.
//
// token authorizes the calls unless a service token is configured.
func (client *Client) Provision(ctx context.Context, profile Profile, location Location, token string) error {
	if client.config.ServiceToken != "" {
		token = client.config.ServiceToken
	}

	steps := []struct {
		name       string
		base       string
		path       string
		body       any
		existingOK bool
	}{
		{"ua_master", client.config.UAMasterURL, "user", mirrorUser{Profile: profile, UserType: userTypeOwner, ActivityOwner: userTypeOwner}, true},
		{"activity", client.config.ActivityURL, "activity/login", loginActivity{Location: location, ActivityBy: userTypeOwner, User: profile.UserID, ActivityOwner: userTypeOwner}, false},
		{"media_master", client.config.MediaMasterURL, "user", mirrorUser{Profile: profile, UserType: userTypeOwner, ContentOwner: userTypeOwner}, true},
	}

	for _, step := range steps {
		if step.base == "" {
			client.logger.Debug("provision_step_skipped", slog.String("step", step.name))
			continue
		}

		if err := client.post(ctx, joinURL(step.base, step.path), step.body, token, step.existingOK); err != nil {
			return fmt.Errorf("provision_%s_failed: %w", step.name, err)
		}
	}

	client.logger.Info("provision_completed", slog.String("user_id", profile.UserID))
	return nil
}

func (client *Client) post(ctx context.Context, target string, body any, token string, existingOK bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return nil
	case response.StatusCode == http.StatusForbidden && existingOK:
		return nil
	default:
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + path
}
