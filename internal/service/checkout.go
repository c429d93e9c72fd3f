package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/astren/internal/cart"
	"github.com/mmeshcher/astren/internal/model"
	"github.com/mmeshcher/astren/internal/repository"
	"github.com/mmeshcher/astren/internal/validation"
)

var (
	// ErrEmptyCart возвращается при попытке оформить пустую корзину.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPromoCode возвращается, если промокод не найден или выключен.
	ErrInvalidPromoCode = errors.New("invalid promo code")
	// ErrInvalidOrder возвращается, если не заполнены данные доставки.
	ErrInvalidOrder = errors.New("invalid order details")
)

const deliveryTimeNow = "now"

var (
	vatRate = decimal.RequireFromString("0.16")
	hundred = decimal.NewFromInt(100)
)

// PlaceOrderRequest содержит данные оформления заказа.
type PlaceOrderRequest struct {
	PromoCode       string `json:"promoCode"`
	UseLoyalty      bool   `json:"useLoyalty"`
	DeliveryAddress string `json:"deliveryAddress"`
	ContactPhone    string `json:"contactPhone"`
	DeliveryTime    string `json:"deliveryTime"`
}

// Quote рассчитывает сумму заказа по текущей корзине.
func (s *Service) Quote(ctx context.Context, userID int64, promoCode string, useLoyalty bool) (*model.Quote, error) {
	lines := s.carts.Get(userID).Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return s.quote(ctx, userID, lines, promoCode, useLoyalty)
}

func (s *Service) quote(ctx context.Context, userID int64, lines []cart.Line, promoCode string, useLoyalty bool) (*model.Quote, error) {
	var promo *model.PromoCode
	if code := strings.TrimSpace(promoCode); code != "" {
		p, err := s.repo.GetPromoCodeByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrPromoNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, code)
			}
			return nil, err
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, code)
		}
		promo = p
	}

	var balance float64
	if useLoyalty {
		u, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		balance = u.LoyaltyBalance
	}

	q := computeQuote(lines, promo, balance)
	return &q, nil
}

// computeQuote считает: скидку по промокоду от суммы корзины, списание баллов
// не больше суммы после скидки, НДС 16% от остатка.
func computeQuote(lines []cart.Line, promo *model.PromoCode, loyaltyBalance float64) model.Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := decimal.Zero
	code := ""
	if promo != nil {
		discount = subtotal.Mul(decimal.NewFromFloat(promo.Discount)).Div(hundred).Round(2)
		code = promo.Code
	}
	afterPromo := subtotal.Sub(discount)

	loyalty := decimal.Min(decimal.NewFromFloat(loyaltyBalance), afterPromo)
	if loyalty.IsNegative() {
		loyalty = decimal.Zero
	}
	afterDiscounts := afterPromo.Sub(loyalty)

	vat := afterDiscounts.Mul(vatRate).Round(2)
	total := afterDiscounts.Add(vat)

	return model.Quote{
		Subtotal:       subtotal.Round(2).InexactFloat64(),
		Discount:       discount.InexactFloat64(),
		PromoCode:      code,
		LoyaltyApplied: loyalty.Round(2).InexactFloat64(),
		VAT:            vat.InexactFloat64(),
		Total:          total.Round(2).InexactFloat64(),
	}
}

// PlaceOrder оформляет заказ по текущей корзине, списывает баллы и очищает корзину.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*model.Order, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: delivery address is required", ErrInvalidOrder)
	}
	if !validation.IsValidPhone(req.ContactPhone) {
		return nil, fmt.Errorf("%w: contact phone", ErrInvalidOrder)
	}

	c := s.carts.Get(userID)
	lines := c.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	q, err := s.quote(ctx, userID, lines, req.PromoCode, req.UseLoyalty)
	if err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			Name:     l.Item.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}

	deliveryTime := strings.TrimSpace(req.DeliveryTime)
	if deliveryTime == "" {
		deliveryTime = deliveryTimeNow
	}

	order := model.Order{
		ID:                s.newID(),
		UserID:            userID,
		UserPhone:         accountPhone(u),
		Items:             items,
		Subtotal:          q.Subtotal,
		Discount:          q.Discount,
		PromoCode:         q.PromoCode,
		LoyaltyPointsUsed: q.LoyaltyApplied,
		VAT:               q.VAT,
		Total:             q.Total,
		Status:            model.OrderStatusReceived,
		DeliveryAddress:   address,
		ContactPhone:      validation.Digits(req.ContactPhone),
		DeliveryTime:      deliveryTime,
		CreatedAt:         s.now(),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	c.Clear()
	return &order, nil
}

// accountPhone возвращает номер в том виде, в каком он входит в логин,
// чтобы заказы одного аккаунта совпадали при разных форматах ввода.
func accountPhone(u *model.User) string {
	if u.Email == "" {
		return u.Phone
	}
	return validation.PhoneFromEmail(u.Email)
}
