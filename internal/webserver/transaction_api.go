package webserver

import (
	"encoding/json"
	"net/http"
)

type updatePricesRequest struct {
	BuyNowPrice  string `json:"buy_now_price"`
	CurrentOffer string `json:"current_offer"`
}

func handleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updatePricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	out, err := deps.Flow.UpdatePrice(r.PathValue("id"), actor, req.BuyNowPrice, req.CurrentOffer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleBeginBuyNow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	conf, err := deps.Flow.BeginBuyNow(r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

type offerRequest struct {
	Offer string `json:"offer"`
}

func handleBeginOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	conf, err := deps.Flow.BeginOffer(r.PathValue("id"), actor, req.Offer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

func handleConfirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	out, err := deps.Flow.Confirm(r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleCancelConfirmation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := deps.Flow.CancelConfirmation(r.PathValue("id"), actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func handleMarkSold(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireCaller(w, r)
	if !ok {
		return
	}

	out, err := deps.Flow.MarkSold(r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
