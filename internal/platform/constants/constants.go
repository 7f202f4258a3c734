// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuer and token typing.
  - Realtime: Broadcast rooms and event names.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "ownerauth"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "ownerauth"

	// TokenTypeOwner is the 'type' claim carried by every owner token.
	TokenTypeOwner = "OWNER"

	// TokenUseAccess and TokenUseRefresh distinguish the two halves of a token pair.
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"

	// BcryptCost is the work factor used for owner password hashes.
	BcryptCost = 12
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldError  = "error"
	FieldCode   = "code"
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Entity Counters

const (
	// EntityResetPasswordRequest is the counter name for human-readable reset request ids.
	EntityResetPasswordRequest = "RESET_PASSWORD_REQUEST"
)

// # Realtime

const (
	// RoomOwnerSuperAdmin is the broadcast room for super-admin dashboards.
	RoomOwnerSuperAdmin = "owner-super-admin"

	// EventNewRequest announces a freshly created reset request.
	EventNewRequest = "new_request"

	// RedisChannelPrefix namespaces realtime pub/sub channels.
	RedisChannelPrefix = "realtime:"
)

// # Redis Prefixes

const (
	RedisPrefixCounter = "counter:"
)
