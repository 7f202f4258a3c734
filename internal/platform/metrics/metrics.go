// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus collectors exported on /metrics.

Collectors are registered on a private registry so tests can build as many
[Metrics] instances as they like without duplicate-registration panics.
*/
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// Metrics groups every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LoginAttemptsTotal  *prometheus.CounterVec
	ResetActivities     *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	namespace := constants.AppName

	return &Metrics{
		registry: registry,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		LoginAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Recorded login attempts by stage and result",
			},
			[]string{"stage", "result"},
		),
		ResetActivities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reset_activities_total",
				Help:      "Reset request activities appended, by type",
			},
			[]string{"type"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "OTP notifications by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// # Domain Hooks

// LoginAttempt counts one recorded attempt.
func (m *Metrics) LoginAttempt(stage, result string) {
	m.LoginAttemptsTotal.WithLabelValues(stage, result).Inc()
}

// ResetActivity counts one appended reset activity.
func (m *Metrics) ResetActivity(activityType string) {
	m.ResetActivities.WithLabelValues(activityType).Inc()
}

// Notification counts one delivery outcome.
func (m *Metrics) Notification(channel string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// # HTTP Instrumentation

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

// Middleware records request count and latency labelled by the chi route pattern,
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(request.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}
