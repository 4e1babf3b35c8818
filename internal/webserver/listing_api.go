package webserver

import (
	"net/http"
	"time"

	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/settings"
)

func handleListListings(w http.ResponseWriter, r *http.Request) {
	all, err := deps.Store.All()
	if err != nil {
		writeError(w, err)
		return
	}
	if all == nil {
		all = []*listing.Listing{}
	}
	writeJSON(w, http.StatusOK, all)
}

func handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := deps.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleRenderListing re-renders a stored listing with its community's
// current effective settings.
func handleRenderListing(w http.ResponseWriter, r *http.Request) {
	l, err := deps.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	cs, err := deps.Settings.Get(l.CommunityID)
	if err != nil {
		writeError(w, err)
		return
	}
	eff := settings.Resolve(&cs, &l.Colors)
	writeJSON(w, http.StatusOK, listing.RenderListing(l, eff, time.Now(), false))
}

func handleMyListings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}
	communityID := r.URL.Query().Get("community_id")
	if communityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "community_id is required"})
		return
	}

	mine, err := deps.Store.BySeller(communityID, actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if mine == nil {
		mine = []*listing.Listing{}
	}
	writeJSON(w, http.StatusOK, mine)
}
