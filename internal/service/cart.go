package service

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/astren/internal/cart"
)

// ErrItemNotFound возвращается, если позиции нет в каталоге.
var ErrItemNotFound = errors.New("menu item not found")

// CartView содержит корзину для ответа клиенту.
type CartView struct {
	Lines    []cart.Line `json:"lines"`
	Subtotal float64     `json:"subtotal"`
	IsOpen   bool        `json:"isOpen"`
}

// Cart возвращает корзину пользователя.
func (s *Service) Cart(userID int64) CartView {
	c := s.carts.Get(userID)
	lines := c.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return CartView{
		Lines:    lines,
		Subtotal: round2(c.Subtotal()),
		IsOpen:   c.IsOpen(),
	}
}

// AddToCart добавляет позицию меню по цене каталога.
func (s *Service) AddToCart(userID int64, itemID string) (CartView, error) {
	item, ok := s.findMenuItem(itemID)
	if !ok {
		return CartView{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	s.carts.Get(userID).Add(item)
	return s.Cart(userID), nil
}

// UpdateCartQuantity меняет количество в строке корзины.
func (s *Service) UpdateCartQuantity(userID int64, lineID string, quantity int) (CartView, error) {
	if err := s.carts.Get(userID).UpdateQuantity(lineID, quantity); err != nil {
		return CartView{}, err
	}
	return s.Cart(userID), nil
}

// RemoveFromCart удаляет строку корзины.
func (s *Service) RemoveFromCart(userID int64, lineID string) (CartView, error) {
	if err := s.carts.Get(userID).Remove(lineID); err != nil {
		return CartView{}, err
	}
	return s.Cart(userID), nil
}

// ClearCart очищает корзину.
func (s *Service) ClearCart(userID int64) CartView {
	s.carts.Get(userID).Clear()
	return s.Cart(userID)
}

// ToggleCart переключает видимость корзины.
func (s *Service) ToggleCart(userID int64) CartView {
	s.carts.Get(userID).Toggle()
	return s.Cart(userID)
}
