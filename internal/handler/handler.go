// Package handler содержит HTTP-обработчики API сервиса заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/cart"
	"github.com/mmeshcher/astren/internal/deal"
	"github.com/mmeshcher/astren/internal/middleware"
	"github.com/mmeshcher/astren/internal/model"
	"github.com/mmeshcher/astren/internal/repository"
	"github.com/mmeshcher/astren/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, phone, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, phone, password string) (*model.User, error)
	Profile(ctx context.Context, userID int64) (*model.User, error)

	Menu(category model.Category) []model.MenuItem
	DealBadges() []deal.Badge
	SubscribeDeals() (<-chan []deal.Badge, func())

	OpenDeal(userID int64, dealID string) (deal.View, error)
	SelectDealMain(userID int64, itemID string) (deal.View, error)
	SelectDealGift(userID int64, itemID string) (deal.View, error)
	CommitDeal(userID int64) (service.CartView, error)
	CancelDeal(userID int64) (deal.View, error)
	DealSession(userID int64) deal.View
	Notification(userID int64) (string, bool)

	Cart(userID int64) service.CartView
	AddToCart(userID int64, itemID string) (service.CartView, error)
	UpdateCartQuantity(userID int64, lineID string, quantity int) (service.CartView, error)
	RemoveFromCart(userID int64, lineID string) (service.CartView, error)
	ClearCart(userID int64) service.CartView
	ToggleCart(userID int64) service.CartView

	Quote(ctx context.Context, userID int64, promoCode string, useLoyalty bool) (*model.Quote, error)
	PlaceOrder(ctx context.Context, userID int64, req service.PlaceOrderRequest) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	SetDealActive(ctx context.Context, id string, active bool) error
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (float64, error)
	ListLoyaltyLog(ctx context.Context) ([]model.LoyaltyLogEntry, error)
	ListPromoCodes(ctx context.Context) ([]model.PromoCode, error)
	CreatePromoCode(ctx context.Context, code string, discount float64, active bool) (*model.PromoCode, error)
	UpdatePromoCode(ctx context.Context, p model.PromoCode) (*model.PromoCode, error)
	DeletePromoCode(ctx context.Context, id string) error
}

// Handler реализует HTTP-обработчики API сервиса заказов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware

	// streamsDone закрывается при остановке сервера и завершает потоки событий.
	streamsDone chan struct{}
	closeOnce   sync.Once
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		streamsDone:    make(chan struct{}),
	}
}

// CloseStreams завершает открытые потоки событий. Регистрируется через
// http.Server.RegisterOnShutdown, иначе Shutdown ждёт их до таймаута.
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() {
		close(h.streamsDone)
	})
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type userResponse struct {
	ID             int64      `json:"id"`
	Phone          string     `json:"phone"`
	Role           model.Role `json:"role"`
	LoyaltyBalance float64    `json:"loyaltyBalance"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Phone:          u.Phone,
		Role:           u.Role,
		LoyaltyBalance: u.LoyaltyBalance,
	}
}

// Register обрабатывает регистрацию нового пользователя по номеру телефона.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Phone == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.writeError(w, err, "register user")
		return
	}

	h.authMiddleware.SetAuthCookie(w, user.ID, user.Role)
	h.writeJSON(w, http.StatusOK, newUserResponse(user))
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Phone == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.writeError(w, err, "login user")
		return
	}

	h.authMiddleware.SetAuthCookie(w, user.ID, user.Role)
	h.writeJSON(w, http.StatusOK, newUserResponse(user))
}

// Logout удаляет cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

// Profile возвращает данные текущего пользователя с балансом баллов.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "get profile")
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(user))
}

type notificationResponse struct {
	Message string `json:"message"`
}

// Notification возвращает текущее уведомление пользователя.
func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	msg, ok := h.service.Notification(userID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, notificationResponse{Message: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError переводит доменные ошибки в HTTP-статусы. Неизвестные ошибки логируются как 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, deal.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, deal.ErrIneligibleDeal):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, deal.ErrUnknownSelection):
		status = http.StatusBadRequest

	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrPromoExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, repository.ErrInsufficientBalance):
		status = http.StatusPaymentRequired

	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrDealNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrPromoNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		status = http.StatusNotFound

	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidPromoCode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidDiscount):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error", zap.Error(err))
	} else {
		h.logger.Debug(op+" rejected", zap.Error(err), zap.Int("status", status))
	}

	http.Error(w, http.StatusText(status), status)
}
