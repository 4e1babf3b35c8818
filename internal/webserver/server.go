// Package webserver exposes the listing bot's HTTP and websocket API.
// A platform gateway (the chat-facing process) authenticates users and
// forwards their identity in the X-Caller-ID / X-Caller-Name headers.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ignmarket/listing-bot/internal/broadcast"
	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/session"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"github.com/ignmarket/listing-bot/internal/workflow"
	"go.uber.org/zap"
)

// Deps wires the domain layers into the HTTP handlers.
type Deps struct {
	Sessions *session.Manager
	Store    *localdb.Store
	Settings *settings.Manager
	Flow     *workflow.Workflow
	Prober   workflow.MessageProber
}

var (
	httpServer *http.Server
	deps       Deps
)

// webSocketBroadcaster bridges domain broadcasts onto the websocket hub.
type webSocketBroadcaster struct{}

func (w *webSocketBroadcaster) BroadcastMessage(msgType string, data interface{}) {
	BroadcastWSMessage(msgType, data)
}

// corsMiddleware adds CORS headers to HTTP handlers
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Caller-ID, X-Caller-Name, X-Caller-Admin, X-Caller-Manage")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Composition sessions
	mux.HandleFunc("POST /api/sessions", corsMiddleware(handleStartSession))
	mux.HandleFunc("GET /api/sessions/{token}", corsMiddleware(handleGetSession))
	mux.HandleFunc("POST /api/sessions/{token}/general", corsMiddleware(handleEditGeneral))
	mux.HandleFunc("POST /api/sessions/{token}/bedwars", corsMiddleware(handleEditBedWars))
	mux.HandleFunc("POST /api/sessions/{token}/skywars", corsMiddleware(handleEditSkyWars))
	mux.HandleFunc("POST /api/sessions/{token}/duels", corsMiddleware(handleEditDuels))
	mux.HandleFunc("POST /api/sessions/{token}/colors", corsMiddleware(handleEditColors))
	mux.HandleFunc("POST /api/sessions/{token}/preview", corsMiddleware(handlePreviewSession))
	mux.HandleFunc("POST /api/sessions/{token}/publish", corsMiddleware(handlePublishSession))
	mux.HandleFunc("POST /api/sessions/{token}/cancel", corsMiddleware(handleCancelSession))

	// Published listings
	mux.HandleFunc("GET /api/listings", corsMiddleware(handleListListings))
	mux.HandleFunc("GET /api/listings/{id}", corsMiddleware(handleGetListing))
	mux.HandleFunc("GET /api/listings/{id}/render", corsMiddleware(handleRenderListing))
	mux.HandleFunc("GET /api/mylistings", corsMiddleware(handleMyListings))

	// Transactions
	mux.HandleFunc("POST /api/listings/{id}/prices", corsMiddleware(handleUpdatePrices))
	mux.HandleFunc("POST /api/listings/{id}/buy-now", corsMiddleware(handleBeginBuyNow))
	mux.HandleFunc("POST /api/listings/{id}/offer", corsMiddleware(handleBeginOffer))
	mux.HandleFunc("POST /api/listings/{id}/sold", corsMiddleware(handleMarkSold))
	mux.HandleFunc("POST /api/confirmations/{id}/confirm", corsMiddleware(handleConfirm))
	mux.HandleFunc("POST /api/confirmations/{id}/cancel", corsMiddleware(handleCancelConfirmation))

	// Community settings
	mux.HandleFunc("GET /api/settings", corsMiddleware(handleGetSettings))
	mux.HandleFunc("PUT /api/settings", corsMiddleware(handlePutSettings))

	// Operations
	mux.HandleFunc("POST /api/maintenance/clean", corsMiddleware(handleCleanListings))
	mux.HandleFunc("GET /api/stats", corsMiddleware(handleStats))
	mux.HandleFunc("GET /api/status", corsMiddleware(handleStatus))
	mux.HandleFunc("GET /api/logs", corsMiddleware(handleGetLogs))
	mux.HandleFunc("DELETE /api/logs", corsMiddleware(handleClearLogs))

	// WebSocket
	mux.HandleFunc("/ws", handleWebSocket)

	return mux
}

func StartWebServer(port int, d Deps) error {
	deps = d

	broadcast.SetBroadcaster(&webSocketBroadcaster{})
	StartWSHub()

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: buildMux(),
	}

	go func() {
		logger.Info("Web server starting", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Web server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the HTTP server gracefully.
func Shutdown(ctx context.Context) error {
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// callerFrom reads the forwarded caller identity. An empty id means the
// gateway did not authenticate the request.
func callerFrom(r *http.Request) (workflow.Actor, bool) {
	actor := workflow.Actor{
		ID:   r.Header.Get("X-Caller-ID"),
		Name: r.Header.Get("X-Caller-Name"),
	}
	return actor, actor.ID != ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var vErr *listing.ValidationError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrNoBuyNowPrice),
		errors.Is(err, workflow.ErrNothingToUpdate):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrNotSeller),
		errors.Is(err, workflow.ErrSelfPurchase),
		errors.Is(err, workflow.ErrNotYourConfirmation):
		status = http.StatusForbidden
	case errors.Is(err, localdb.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNotPreviewing):
		status = http.StatusConflict
	case errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, workflow.ErrConfirmationExpired):
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requireCaller(w http.ResponseWriter, r *http.Request) (workflow.Actor, bool) {
	actor, ok := callerFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing caller identity"})
	}
	return actor, ok
}

// requireAdmin additionally checks the gateway-asserted admin
// capability flag. The gateway owns the permission model; this service
// only trusts the boolean.
func requireAdmin(w http.ResponseWriter, r *http.Request) (workflow.Actor, bool) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return actor, false
	}
	if r.Header.Get("X-Caller-Admin") != "true" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "administrator permission required"})
		return actor, false
	}
	return actor, true
}

// requireManager checks the manage-community capability. Administrators
// pass too.
func requireManager(w http.ResponseWriter, r *http.Request) (workflow.Actor, bool) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return actor, false
	}
	if r.Header.Get("X-Caller-Manage") != "true" && r.Header.Get("X-Caller-Admin") != "true" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "manage community permission required"})
		return actor, false
	}
	return actor, true
}
