package deal

import (
	"slices"

	"github.com/mmeshcher/astren/internal/model"
)

// Идентификаторы акций, для которых исторически задан особый набор вариантов.
const (
	ComboForTwoID   = "deal1"
	EmployeeLunchID = "deal2"
	WeekendFamilyID = "deal3"
)

var defaultMainCategories = []model.Category{model.CategoryMains, model.CategoryCombo}

// PolicyForDeal возвращает политику выбора вариантов для акции с указанным идентификатором.
// Вызывается при наполнении каталога, когда у акции нет явной политики.
func PolicyForDeal(id string) model.OptionPolicy {
	switch id {
	case ComboForTwoID:
		return model.OptionPolicy{MainCategories: []model.Category{model.CategoryCombo}}
	case EmployeeLunchID:
		return model.OptionPolicy{MainCategories: []model.Category{model.CategoryMains}}
	case WeekendFamilyID:
		return model.OptionPolicy{
			MainCategories: slices.Clone(defaultMainCategories),
			GiftCategories: []model.Category{model.CategoryKids},
		}
	default:
		return model.OptionPolicy{MainCategories: slices.Clone(defaultMainCategories)}
	}
}

// WithPolicy заполняет политику акции, если она не задана явно.
func WithPolicy(d model.Deal) model.Deal {
	if len(d.Policy.MainCategories) == 0 && len(d.Policy.GiftCategories) == 0 {
		d.Policy = PolicyForDeal(d.ID)
	}
	return d
}

// ResolveMainOptions возвращает позиции, доступные для выбора основного блюда, в порядке каталога.
func ResolveMainOptions(d model.Deal, catalog []model.MenuItem) []model.MenuItem {
	categories := d.Policy.MainCategories
	if len(categories) == 0 {
		categories = defaultMainCategories
	}
	return filterByCategory(catalog, categories)
}

// ResolveGiftOptions возвращает позиции, доступные в качестве подарка, в порядке каталога.
func ResolveGiftOptions(d model.Deal, catalog []model.MenuItem) []model.MenuItem {
	if len(d.Policy.GiftCategories) > 0 {
		return filterByCategory(catalog, d.Policy.GiftCategories)
	}
	if d.Rules == nil || len(d.Rules.GiftOptions) == 0 {
		return nil
	}

	res := make([]model.MenuItem, 0, len(d.Rules.GiftOptions))
	for _, item := range catalog {
		if slices.Contains(d.Rules.GiftOptions, item.ID) {
			res = append(res, item)
		}
	}
	return res
}

func filterByCategory(catalog []model.MenuItem, categories []model.Category) []model.MenuItem {
	var res []model.MenuItem
	for _, item := range catalog {
		if slices.Contains(categories, item.Category) {
			res = append(res, item)
		}
	}
	return res
}
