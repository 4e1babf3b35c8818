package webserver

import (
	"net/http"
	"time"

	"github.com/ignmarket/listing-bot/internal/shared/logger"
)

var startTime = time.Now()

func handleStatus(w http.ResponseWriter, r *http.Request) {
	listings, err := deps.Store.Count()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                "ok",
		"uptime_seconds":        int(time.Since(startTime).Seconds()),
		"listings":              listings,
		"active_sessions":       deps.Sessions.Count(),
		"pending_confirmations": deps.Flow.PendingConfirmations(),
		"websocket_clients":     ConnectedClients(),
	})
}

// handleStats reports listing counts for administrators. When a
// community_id is supplied the per-community count is included.
func handleStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	total, err := deps.Store.Count()
	if err != nil {
		writeError(w, err)
		return
	}
	communities, err := deps.Store.CountCommunities()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"total_listings": total,
		"communities":    communities,
	}
	if communityID := r.URL.Query().Get("community_id"); communityID != "" {
		n, err := deps.Store.CountByCommunity(communityID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["community_listings"] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCleanListings removes store entries whose posted message no
// longer exists on the platform.
func handleCleanListings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if deps.Prober == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no message prober configured"})
		return
	}

	removed, err := deps.Flow.CleanInactive(deps.Prober)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func handleGetLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, logger.RecentEntries())
}

func handleClearLogs(w http.ResponseWriter, r *http.Request) {
	logger.ClearEntries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
