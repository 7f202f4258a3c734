// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the HTTP chain of the owner API.

Order in the server: RequestID, StructuredLogger, metrics, PanicRecovery,
Authenticate, CORS. The guards in authz.go run per route group.
*/
package middleware

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/pkg/uuid"
)

// # Request Tracing

// RequestID keeps a caller supplied X-Request-ID or mints a UUIDv7 one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

// # Access Log

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder.
func (recorder *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := recorder.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	recorder.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

/*
StructuredLogger stores a request-scoped logger in the context and writes one
"http_request_finished" line per request.

Parameters:
  - logger: *slog.Logger (base logger, usually tagged with the app name)

Returns:
  - func(http.Handler) http.Handler

The line is logged at warn for 4xx and error for 5xx. The owner id is added
once Authenticate has run further down the chain.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.RequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			request = request.WithContext(ctxutil.WithLogger(request.Context(), requestLogger))

			// Authenticate replaces the request, so claims are read back from a holder
			holder := &claimsHolder{}
			next.ServeHTTP(recorder, request.WithContext(withHolder(request.Context(), holder)))

			level := slog.LevelInfo
			switch {
			case recorder.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case recorder.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []any{
				slog.Int("status", recorder.status),
				slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			}
			if holder.userID != "" {
				attrs = append(attrs, slog.String("user_id", holder.userID))
			}

			requestLogger.Log(request.Context(), level, "http_request_finished", attrs...)
		})
	}
}

type holderKey struct{}

type claimsHolder struct {
	userID string
}

func withHolder(ctx context.Context, holder *claimsHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, holder)
}

// recordActor lets StructuredLogger see the owner resolved further down.
func recordActor(ctx context.Context, userID string) {
	if holder, ok := ctx.Value(holderKey{}).(*claimsHolder); ok {
		holder.userID = userID
	}
}

// # Rate Limiting

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitors struct {
	mu    sync.Mutex
	byIP  map[string]*visitor
	limit rate.Limit
	burst int
}

func (set *visitors) get(ip string, now time.Time) *rate.Limiter {
	set.mu.Lock()
	defer set.mu.Unlock()

	entry, found := set.byIP[ip]
	if !found {
		entry = &visitor{limiter: rate.NewLimiter(set.limit, set.burst)}
		set.byIP[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (set *visitors) sweep(now time.Time) {
	set.mu.Lock()
	defer set.mu.Unlock()

	for ip, entry := range set.byIP {
		if now.Sub(entry.lastSeen) > constants.RateLimitClientTTL {
			delete(set.byIP, ip)
		}
	}
}

/*
RateLimit applies a token bucket per client IP.

Login, OTP and reset endpoints are public, so the bucket is the only brake on
code guessing from a single address. A rejected call gets 429 with a
Retry-After header. Idle entries are swept until context is cancelled.
*/
func RateLimit(context context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	set := &visitors{
		byIP:  make(map[string]*visitor),
		limit: rate.Limit(requestsPerSecond),
		burst: burst,
	}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				set.sweep(now)
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			now := time.Now()
			reservation := set.get(RealIP(request), now).ReserveN(now, 1)

			if delay := reservation.DelayFrom(now); !reservation.OK() || delay > 0 {
				reservation.CancelAt(now)
				seconds := retryAfterSeconds(reservation.OK(), delay)
				writer.Header().Set("Retry-After", strconv.Itoa(seconds))
				respond.Error(writer, request, apperr.RateLimited(seconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func retryAfterSeconds(ok bool, delay time.Duration) int {
	if !ok || delay > time.Hour {
		return int(time.Hour / time.Second)
	}
	return int(math.Ceil(delay.Seconds()))
}

// # Panic Recovery

// PanicRecovery turns a panic into a 500 and logs the stack.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				ctxutil.Logger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(stack)),
				)
				respond.Error(writer, request, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig defines the behavior needed by the CORS middleware.
type AppConfig interface {
	IsDevelopment() bool
	Origins() []string
}

// CORS handles Cross-Origin Resource Sharing based on application environment.
//
// Development accepts any origin. Other environments accept only the configured
// dashboard origins.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", constants.HeaderAuthorization, constants.HeaderXRequestID},
		ExposedHeaders:   []string{"Content-Length", constants.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if cfg.IsDevelopment() {
		options.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	} else {
		options.AllowedOrigins = cfg.Origins()
	}

	return cors.Handler(options)
}

// # Middleware Helpers

// RealIP returns the client address, preferring X-Real-IP then the first X-Forwarded-For hop.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, _ := net.SplitHostPort(request.RemoteAddr)
	return host
}
