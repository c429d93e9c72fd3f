package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/astren/internal/model"
)

var (
	// ErrInvalidStatus возвращается при попытке выставить неизвестный статус заказа.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidDiscount возвращается, если процент скидки вне диапазона (0, 100].
	ErrInvalidDiscount = errors.New("invalid discount")
)

var loyaltyRate = decimal.RequireFromString("0.02")

// GetOrdersByUser возвращает список заказов пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateOrderStatus меняет статус заказа. При переходе в «доставлен» владельцу
// начисляется 2% от суммы заказа. Возвращает начисленные баллы.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (float64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if status != model.OrderStatusDelivered {
		return 0, s.repo.UpdateOrderStatus(ctx, orderID, status)
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Status == model.OrderStatusDelivered {
		return 0, nil
	}

	entry := model.LoyaltyLogEntry{
		ID:            s.newID(),
		OrderID:       order.ID,
		UserPhone:     order.UserPhone,
		PointsAwarded: loyaltyPoints(order.Total),
		CreatedAt:     s.now(),
	}

	awarded, err := s.repo.DeliverOrder(ctx, entry)
	if err != nil {
		return 0, err
	}
	if !awarded {
		return 0, nil
	}
	return entry.PointsAwarded, nil
}

// ListLoyaltyLog возвращает журнал начислений баллов.
func (s *Service) ListLoyaltyLog(ctx context.Context) ([]model.LoyaltyLogEntry, error) {
	return s.repo.ListLoyaltyLog(ctx)
}

// ListPromoCodes возвращает все промокоды.
func (s *Service) ListPromoCodes(ctx context.Context) ([]model.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

// CreatePromoCode создаёт промокод. Код приводится к верхнему регистру.
func (s *Service) CreatePromoCode(ctx context.Context, code string, discount float64, active bool) (*model.PromoCode, error) {
	p := model.PromoCode{
		ID:       s.newID(),
		Code:     strings.ToUpper(strings.TrimSpace(code)),
		Discount: discount,
		IsActive: active,
	}
	if err := validatePromo(p); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePromoCode(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePromoCode обновляет промокод.
func (s *Service) UpdatePromoCode(ctx context.Context, p model.PromoCode) (*model.PromoCode, error) {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if err := validatePromo(p); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePromoCode(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePromoCode удаляет промокод.
func (s *Service) DeletePromoCode(ctx context.Context, id string) error {
	return s.repo.DeletePromoCode(ctx, id)
}

func validatePromo(p model.PromoCode) error {
	if p.Code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidPromoCode)
	}
	if p.Discount <= 0 || p.Discount > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, p.Discount)
	}
	return nil
}

func loyaltyPoints(total float64) float64 {
	return decimal.NewFromFloat(total).Mul(loyaltyRate).Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
