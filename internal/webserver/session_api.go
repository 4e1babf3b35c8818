package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/session"
)

type startSessionRequest struct {
	CommunityID  string `json:"community_id"`
	ChannelID    string `json:"channel_id"`
	Identity     string `json:"identity"`
	BuyNowPrice  string `json:"buy_now_price"`
	CurrentOffer string `json:"current_offer"`
	Notes        string `json:"notes"`
}

func handleStartSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := deps.Sessions.Start(actor.ID, actor.Name, req.CommunityID, req.ChannelID,
		req.Identity, req.BuyNowPrice, req.CurrentOffer, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := deps.Sessions.Get(r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeEditResult(w http.ResponseWriter, s *session.Session, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func handleEditGeneral(w http.ResponseWriter, r *http.Request) {
	var in listing.GeneralInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s, err := deps.Sessions.EditGeneral(r.PathValue("token"), in)
	writeEditResult(w, s, err)
}

func handleEditBedWars(w http.ResponseWriter, r *http.Request) {
	var in listing.RatioStatsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s, err := deps.Sessions.EditBedWars(r.PathValue("token"), in)
	writeEditResult(w, s, err)
}

func handleEditSkyWars(w http.ResponseWriter, r *http.Request) {
	var in listing.RatioStatsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s, err := deps.Sessions.EditSkyWars(r.PathValue("token"), in)
	writeEditResult(w, s, err)
}

func handleEditDuels(w http.ResponseWriter, r *http.Request) {
	var in listing.DuelsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s, err := deps.Sessions.EditDuels(r.PathValue("token"), in)
	writeEditResult(w, s, err)
}

func handleEditColors(w http.ResponseWriter, r *http.Request) {
	var in listing.ColorsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s, err := deps.Sessions.EditColors(r.PathValue("token"), in)
	writeEditResult(w, s, err)
}

func handlePreviewSession(w http.ResponseWriter, r *http.Request) {
	s, art, err := deps.Sessions.Preview(r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  s,
		"artifact": art,
	})
}

type publishRequest struct {
	PublicationID string `json:"publication_id"`
}

func handlePublishSession(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "publication_id is required"})
		return
	}

	l, art, err := deps.Sessions.Publish(r.PathValue("token"), req.PublicationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"listing":  l,
		"artifact": art,
	})
}

func handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := deps.Sessions.Cancel(r.PathValue("token")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
