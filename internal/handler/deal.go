package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/astren/internal/middleware"
)

type openDealRequest struct {
	DealID string `json:"dealId"`
}

type selectRequest struct {
	ItemID string `json:"itemId"`
}

// OpenDeal начинает оформление акции. Незавершённый выбор сбрасывается.
func (h *Handler) OpenDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req openDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DealID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.OpenDeal(userID, req.DealID)
	if err != nil {
		h.writeError(w, err, "open deal")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// SelectMain выбирает основное блюдо в текущей акции.
func (h *Handler) SelectMain(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.SelectDealMain(userID, req.ItemID)
	if err != nil {
		h.writeError(w, err, "select main")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// SelectGift выбирает подарок в текущей акции.
func (h *Handler) SelectGift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.SelectDealGift(userID, req.ItemID)
	if err != nil {
		h.writeError(w, err, "select gift")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// CommitDeal переносит выбор в корзину и возвращает её содержимое.
func (h *Handler) CommitDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	view, err := h.service.CommitDeal(userID)
	if err != nil {
		h.writeError(w, err, "commit deal")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// CancelDeal закрывает оформление без изменений корзины.
func (h *Handler) CancelDeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	view, err := h.service.CancelDeal(userID)
	if err != nil {
		h.writeError(w, err, "cancel deal")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// DealState возвращает текущее состояние оформления.
func (h *Handler) DealState(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.DealSession(userID))
}
