package service

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/deal"
	"github.com/mmeshcher/astren/internal/model"
)

// LoadCatalog перечитывает снимок меню и акций из БД.
func (s *Service) LoadCatalog(ctx context.Context) error {
	menu, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}

	deals, err := s.repo.ListDeals(ctx)
	if err != nil {
		return fmt.Errorf("load deals: %w", err)
	}
	for i := range deals {
		deals[i] = deal.WithPolicy(deals[i])
	}

	s.catalogMu.Lock()
	s.menu = menu
	s.deals = deals
	s.catalogMu.Unlock()

	return nil
}

// Menu возвращает позиции меню в порядке каталога, при необходимости только одной категории.
func (s *Service) Menu(category model.Category) []model.MenuItem {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	if category == "" {
		return slices.Clone(s.menu)
	}

	var res []model.MenuItem
	for _, item := range s.menu {
		if item.Category == category {
			res = append(res, item)
		}
	}
	return res
}

// Deals возвращает снимок каталога акций.
func (s *Service) Deals() []model.Deal {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return slices.Clone(s.deals)
}

func (s *Service) findDeal(id string) (model.Deal, bool) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	for _, d := range s.deals {
		if d.ID == id {
			return d, true
		}
	}
	return model.Deal{}, false
}

func (s *Service) findMenuItem(id string) (model.MenuItem, bool) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	for _, item := range s.menu {
		if item.ID == id {
			return item, true
		}
	}
	return model.MenuItem{}, false
}

// StartCatalogSync запускает фоновое обновление снимка каталога:
// подтягивает документы из внешнего хранилища, если оно настроено, и перечитывает БД.
func (s *Service) StartCatalogSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.syncCatalog(ctx)
			}
		}
	}()
}

func (s *Service) syncCatalog(ctx context.Context) {
	if s.feed != nil && s.feed.Configured() {
		if err := s.syncFeed(ctx); err != nil {
			s.logger.Warn("catalog feed sync failed", zap.Error(err))
		}
	}

	if err := s.LoadCatalog(ctx); err != nil {
		s.logger.Error("reload catalog failed", zap.Error(err))
	}
}

func (s *Service) syncFeed(ctx context.Context) error {
	items, err := s.feed.FetchMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch menu items: %w", err)
	}
	if items.StatusCode == http.StatusTooManyRequests {
		return s.waitRetry(ctx, items.RetryAfter)
	}
	if len(items.Documents) > 0 {
		valid := items.Documents[:0]
		for _, item := range items.Documents {
			if item.ID == "" || !item.Category.Valid() || item.Price < 0 {
				s.logger.Warn("skip invalid menu document", zap.String("id", item.ID))
				continue
			}
			valid = append(valid, item)
		}
		if err := s.repo.UpsertMenuItems(ctx, valid); err != nil {
			return err
		}
	}

	deals, err := s.feed.FetchDeals(ctx)
	if err != nil {
		return fmt.Errorf("fetch deals: %w", err)
	}
	if deals.StatusCode == http.StatusTooManyRequests {
		return s.waitRetry(ctx, deals.RetryAfter)
	}
	if len(deals.Documents) > 0 {
		docs := make([]model.Deal, 0, len(deals.Documents))
		for _, d := range deals.Documents {
			if d.ID == "" {
				continue
			}
			docs = append(docs, deal.WithPolicy(d))
		}
		if err := s.repo.UpsertDeals(ctx, docs); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) waitRetry(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DealBadges возвращает акции с признаками доступности на текущий момент.
func (s *Service) DealBadges() []deal.Badge {
	return s.board.Snapshot()
}

// SubscribeDeals подписывает на изменения признаков доступности акций.
func (s *Service) SubscribeDeals() (<-chan []deal.Badge, func()) {
	return s.board.Subscribe()
}

// SetDealActive включает или выключает акцию и обновляет снимок каталога.
func (s *Service) SetDealActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetDealActive(ctx, id, active); err != nil {
		return err
	}
	return s.LoadCatalog(ctx)
}
