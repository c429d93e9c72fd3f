package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/middleware"
	"github.com/mmeshcher/astren/internal/model"
	"github.com/mmeshcher/astren/internal/service"
)

type quoteRequest struct {
	PromoCode  string `json:"promoCode"`
	UseLoyalty bool   `json:"useLoyalty"`
}

type orderResponse struct {
	ID                string            `json:"id"`
	UserPhone         string            `json:"userPhone"`
	Items             []model.OrderItem `json:"items"`
	Subtotal          float64           `json:"subtotal"`
	Discount          float64           `json:"discount"`
	PromoCode         string            `json:"promoCode,omitempty"`
	LoyaltyPointsUsed float64           `json:"loyaltyPointsUsed"`
	VAT               float64           `json:"vat"`
	Total             float64           `json:"total"`
	Status            model.OrderStatus `json:"status"`
	DeliveryAddress   string            `json:"deliveryAddress"`
	ContactPhone      string            `json:"contactPhone"`
	DeliveryTime      string            `json:"deliveryTime"`
	CreatedAt         string            `json:"createdAt"`
}

func newOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:                o.ID,
		UserPhone:         o.UserPhone,
		Items:             o.Items,
		Subtotal:          o.Subtotal,
		Discount:          o.Discount,
		PromoCode:         o.PromoCode,
		LoyaltyPointsUsed: o.LoyaltyPointsUsed,
		VAT:               o.VAT,
		Total:             o.Total,
		Status:            o.Status,
		DeliveryAddress:   o.DeliveryAddress,
		ContactPhone:      o.ContactPhone,
		DeliveryTime:      o.DeliveryTime,
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
	}
}

func newOrdersResponse(orders []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	return resp
}

// Quote рассчитывает итог заказа по текущей корзине без его оформления.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	q, err := h.service.Quote(r.Context(), userID, req.PromoCode, req.UseLoyalty)
	if err != nil {
		h.writeError(w, err, "quote")
		return
	}

	h.writeJSON(w, http.StatusOK, q)
}

// PlaceOrder оформляет заказ по содержимому корзины.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err, "place order")
		return
	}

	h.logger.Info("order placed",
		zap.String("orderID", order.ID),
		zap.Int64("userID", userID),
		zap.Float64("total", order.Total),
	)

	h.writeJSON(w, http.StatusCreated, newOrderResponse(*order))
}

// GetOrders возвращает заказы пользователя, начиная с новых.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrdersResponse(orders))
}
