package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/model"
)

type dealStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type orderStatusResponse struct {
	OrderID       string            `json:"orderId"`
	Status        model.OrderStatus `json:"status"`
	PointsAwarded float64           `json:"pointsAwarded"`
}

type loyaltyLogResponse struct {
	ID            string  `json:"id"`
	OrderID       string  `json:"orderId"`
	UserPhone     string  `json:"userPhone"`
	PointsAwarded float64 `json:"pointsAwarded"`
	CreatedAt     string  `json:"createdAt"`
}

type promoRequest struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	IsActive *bool   `json:"isActive"`
}

// ListUsers возвращает пользователей с ролями и балансом баллов.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err, "list users")
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// SetDealStatus включает или выключает акцию.
func (h *Handler) SetDealStatus(w http.ResponseWriter, r *http.Request) {
	var req dealStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	dealID := chi.URLParam(r, "dealID")
	if err := h.service.SetDealActive(r.Context(), dealID, *req.IsActive); err != nil {
		h.writeError(w, err, "set deal status")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListOrders возвращает все заказы.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err, "list orders")
		return
	}

	h.writeJSON(w, http.StatusOK, newOrdersResponse(orders))
}

// UpdateOrderStatus меняет статус заказа. При доставке начисляются баллы.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	points, err := h.service.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(w, err, "update order status")
		return
	}

	if points > 0 {
		h.logger.Info("loyalty points awarded",
			zap.String("orderID", orderID),
			zap.Float64("points", points),
		)
	}

	h.writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderID:       orderID,
		Status:        req.Status,
		PointsAwarded: points,
	})
}

// ListLoyaltyLog возвращает журнал начислений баллов.
func (h *Handler) ListLoyaltyLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListLoyaltyLog(r.Context())
	if err != nil {
		h.writeError(w, err, "list loyalty log")
		return
	}

	resp := make([]loyaltyLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, loyaltyLogResponse{
			ID:            e.ID,
			OrderID:       e.OrderID,
			UserPhone:     e.UserPhone,
			PointsAwarded: e.PointsAwarded,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ListPromoCodes возвращает промокоды.
func (h *Handler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.ListPromoCodes(r.Context())
	if err != nil {
		h.writeError(w, err, "list promo codes")
		return
	}
	if promos == nil {
		promos = []model.PromoCode{}
	}

	h.writeJSON(w, http.StatusOK, promos)
}

// CreatePromoCode создаёт промокод. По умолчанию он активен.
func (h *Handler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	p, err := h.service.CreatePromoCode(r.Context(), req.Code, req.Discount, active)
	if err != nil {
		h.writeError(w, err, "create promo code")
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// UpdatePromoCode изменяет промокод.
func (h *Handler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.UpdatePromoCode(r.Context(), model.PromoCode{
		ID:       chi.URLParam(r, "promoID"),
		Code:     req.Code,
		Discount: req.Discount,
		IsActive: *req.IsActive,
	})
	if err != nil {
		h.writeError(w, err, "update promo code")
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// DeletePromoCode удаляет промокод.
func (h *Handler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePromoCode(r.Context(), chi.URLParam(r, "promoID")); err != nil {
		h.writeError(w, err, "delete promo code")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
