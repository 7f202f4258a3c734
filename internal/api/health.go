// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
)

// HealthDependencies are the probes behind GET /ready. A nil probe is skipped.
type HealthDependencies struct {
	// DatabaseName labels the store probe ("postgres" or "mongo").
	DatabaseName  string
	CheckDatabase func() error
	CheckCache    func() error
}

type probe struct {
	name  string
	check func() error
}

type probeResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers returns the /health and /ready handlers.
//
// /health always answers 200 while the process runs. /ready answers 503 with
// the failing probes when the store or redis is unreachable.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	storeName := deps.DatabaseName
	if storeName == "" {
		storeName = "database"
	}

	var probes []probe
	if deps.CheckDatabase != nil {
		probes = append(probes, probe{name: storeName, check: deps.CheckDatabase})
	}
	if deps.CheckCache != nil {
		probes = append(probes, probe{name: "redis", check: deps.CheckCache})
	}

	liveness = func(writer http.ResponseWriter, _ *http.Request) {
		respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
	}

	readiness = func(writer http.ResponseWriter, request *http.Request) {
		results := make([]probeResult, 0, len(probes))
		status, code := "ready", http.StatusOK

		for _, dependency := range probes {
			result := probeResult{Name: dependency.name, IsOK: true}
			if err := dependency.check(); err != nil {
				result.IsOK, result.Error = false, err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				logger.ErrorContext(request.Context(), "readiness_check_failed",
					slog.String("dependency", dependency.name), slog.Any("error", err))
			}
			results = append(results, result)
		}

		respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
			constants.FieldStatus: status,
			constants.FieldChecks: results,
		}})
	}

	return liveness, readiness
}
