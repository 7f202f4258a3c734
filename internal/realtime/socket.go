// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/taibuivan/ownerauth/internal/platform/apperr"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/ctxutil"
	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	"github.com/taibuivan/ownerauth/internal/platform/respond"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
)

// SocketHandler upgrades approver dashboards into the super-admin room.
//
// Browsers cannot set headers on a websocket handshake, so the access token is
// also accepted as the "token" query parameter.
type SocketHandler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
}

// NewSocketHandler builds the handler. allowedOrigins follows the CORS setting;
// "*" admits any origin.
func NewSocketHandler(hub *Hub, verifier middleware.TokenVerifier, allowedOrigins []string) *SocketHandler {
	return &SocketHandler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(request *http.Request) bool {
				origin := request.Header.Get(constants.HeaderOrigin)
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeHTTP handles GET /ws/owner.
func (handler *SocketHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	claims, err := handler.claims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role := claims.UserRole()
	if !claims.IsValidated || (!role.IsSuperAdmin() && !role.IsAdminTier()) {
		respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
		return
	}

	conn, err := handler.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// The upgrader has already written the failure response.
		ctxutil.Logger(request.Context()).Debug("realtime_upgrade_failed", slog.Any("error", err))
		return
	}

	handler.hub.Serve(request.Context(), conn, constants.RoomOwnerSuperAdmin)
}

func (handler *SocketHandler) claims(request *http.Request) (*sec.OwnerClaims, error) {
	if claims := ctxutil.Claims(request.Context()); claims != nil {
		return claims, nil
	}

	token := request.URL.Query().Get("token")
	if token == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	claims, err := handler.verifier.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}
