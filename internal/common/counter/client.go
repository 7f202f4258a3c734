// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package counter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 5 * time.Second

// Client calls a remote counter service. It satisfies [Store] so callers do not
// care whether the counter runs in-process.
type Client struct {
	http    *http.Client
	baseURL string
	secret  string
}

// NewClient builds a client for the counter mounted at baseURL
// (e.g. "https://api.example/api/v1/counter"). A nil httpClient selects a default.
func NewClient(baseURL, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/"), secret: secret}
}

// Get returns the remote count of entity.
func (client *Client) Get(ctx context.Context, entity string) (int64, error) {
	target := client.baseURL + "?" + url.Values{FieldEntity: {entity}}.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("counter_client_get_failed: %w", err)
	}
	return client.do(request, "get")
}

// Increment bumps entity on the remote service.
func (client *Client) Increment(ctx context.Context, entity string) (int64, error) {
	payload, err := json.Marshal(incrementRequest{Entity: entity, Token: client.secret})
	if err != nil {
		return 0, fmt.Errorf("counter_client_increment_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("counter_client_increment_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	return client.do(request, "increment")
}

func (client *Client) do(request *http.Request, operation string) (int64, error) {
	response, err := client.http.Do(request)
	if err != nil {
		return 0, fmt.Errorf("counter_client_%s_failed: %w", operation, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("counter_client_%s_failed: unexpected status %d", operation, response.StatusCode)
	}

	var body struct {
		Data Count `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("counter_client_%s_decode_failed: %w", operation, err)
	}
	return body.Data.Count, nil
}
