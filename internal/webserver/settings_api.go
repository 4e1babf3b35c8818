package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/types"
)

func handleGetSettings(w http.ResponseWriter, r *http.Request) {
	communityID := r.URL.Query().Get("community_id")
	if communityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "community_id is required"})
		return
	}

	cs, err := deps.Settings.Get(communityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// updateSettingsRequest updates only the fields present in the payload.
// The color arrives as a hex string so chat commands can pass user
// input straight through.
type updateSettingsRequest struct {
	EmbedColor        *string   `json:"embed_color"`
	MinimalEmojis     *bool     `json:"minimal_emojis"`
	ShowThumbnails    *bool     `json:"show_thumbnails"`
	ShowSeparators    *bool     `json:"show_separators"`
	ShowDetailedStats *bool     `json:"show_detailed_stats"`
	ListingChannel    *string   `json:"listing_channel"`
	ModeratorRoles    []string  `json:"moderator_roles"`
	PriceFormat       *string   `json:"price_format"`
}

func handlePutSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	communityID := r.URL.Query().Get("community_id")
	if communityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "community_id is required"})
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var embedColor *types.RGB
	if req.EmbedColor != nil {
		c, err := types.ParseRGB(*req.EmbedColor)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "embed_color must be a hex color like #FF5733"})
			return
		}
		embedColor = &c
	}

	cs, err := deps.Settings.Update(communityID, func(cs *settings.CommunitySettings) {
		if embedColor != nil {
			cs.EmbedColor = *embedColor
		}
		if req.MinimalEmojis != nil {
			cs.MinimalEmojis = *req.MinimalEmojis
		}
		if req.ShowThumbnails != nil {
			cs.ShowThumbnails = *req.ShowThumbnails
		}
		if req.ShowSeparators != nil {
			cs.ShowSeparators = *req.ShowSeparators
		}
		if req.ShowDetailedStats != nil {
			cs.ShowDetailedStats = *req.ShowDetailedStats
		}
		if req.ListingChannel != nil {
			cs.ListingChannel = *req.ListingChannel
		}
		if req.ModeratorRoles != nil {
			cs.ModeratorRoles = req.ModeratorRoles
		}
		if req.PriceFormat != nil {
			cs.PriceFormat = *req.PriceFormat
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}

	BroadcastWSMessage("settings_updated", map[string]interface{}{
		"community_id": communityID,
		"settings":     cs,
	})
	writeJSON(w, http.StatusOK, cs)
}
