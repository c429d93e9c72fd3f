package service

import (
	"fmt"

	"github.com/mmeshcher/astren/internal/deal"
	"github.com/mmeshcher/astren/internal/repository"
)

func (s *Service) session(userID int64) *deal.Session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = deal.NewSession(s.gate, s.carts.Get(userID), s.toasts.Notifier(userID))
		s.sessions[userID] = sess
	}
	return sess
}

// OpenDeal начинает оформление акции для пользователя.
func (s *Service) OpenDeal(userID int64, dealID string) (deal.View, error) {
	d, ok := s.findDeal(dealID)
	if !ok {
		return deal.View{}, fmt.Errorf("%w: %s", repository.ErrDealNotFound, dealID)
	}

	sess := s.session(userID)
	if err := sess.Open(d, s.Menu("")); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

// SelectDealMain выбирает основное блюдо в текущей акции.
func (s *Service) SelectDealMain(userID int64, itemID string) (deal.View, error) {
	sess := s.session(userID)
	err := sess.SelectMain(itemID)
	return sess.View(), err
}

// SelectDealGift выбирает подарок в текущей акции.
func (s *Service) SelectDealGift(userID int64, itemID string) (deal.View, error) {
	sess := s.session(userID)
	err := sess.SelectGift(itemID)
	return sess.View(), err
}

// CommitDeal переносит выбор в корзину пользователя.
func (s *Service) CommitDeal(userID int64) (CartView, error) {
	if _, err := s.session(userID).Commit(); err != nil {
		return CartView{}, err
	}
	return s.Cart(userID), nil
}

// CancelDeal закрывает оформление акции без изменения корзины.
func (s *Service) CancelDeal(userID int64) (deal.View, error) {
	sess := s.session(userID)
	err := sess.Cancel()
	return sess.View(), err
}

// DealSession возвращает текущее состояние оформления акции.
func (s *Service) DealSession(userID int64) deal.View {
	return s.session(userID).View()
}

// Notification возвращает текущее уведомление пользователя.
func (s *Service) Notification(userID int64) (string, bool) {
	return s.toasts.For(userID).Current()
}
