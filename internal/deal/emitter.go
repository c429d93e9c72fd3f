package deal

import "github.com/mmeshcher/astren/internal/model"

// Cart принимает позиции, добавляемые по итогам оформления акции.
type Cart interface {
	// Add добавляет позицию по цене из каталога.
	Add(item model.MenuItem)
	// AddAtPrice добавляет позицию по принудительно заданной цене.
	AddAtPrice(item model.MenuItem, price float64)
	// OpenView сигнализирует интерфейсу, что нужно показать корзину.
	OpenView()
}

// CartCommand описывает одно добавление в корзину.
type CartCommand struct {
	Item          model.MenuItem `json:"item"`
	PriceOverride *float64       `json:"priceOverride,omitempty"`
}

// Price возвращает итоговую цену позиции с учётом переопределения.
func (c CartCommand) Price() float64 {
	if c.PriceOverride != nil {
		return *c.PriceOverride
	}
	return c.Item.Price
}

// CommitSelections переводит выбор пользователя в команды корзины:
// сначала основные блюда в порядке выбора, затем подарок с нулевой ценой.
func CommitSelections(mains []model.MenuItem, gift *model.MenuItem) []CartCommand {
	cmds := make([]CartCommand, 0, len(mains)+1)
	for _, m := range mains {
		cmds = append(cmds, CartCommand{Item: m})
	}
	if gift != nil {
		zero := 0.0
		cmds = append(cmds, CartCommand{Item: *gift, PriceOverride: &zero})
	}
	return cmds
}

// Apply выполняет команды над корзиной.
func Apply(cart Cart, cmds []CartCommand) {
	for _, c := range cmds {
		if c.PriceOverride != nil {
			cart.AddAtPrice(c.Item, *c.PriceOverride)
			continue
		}
		cart.Add(c.Item)
	}
}
