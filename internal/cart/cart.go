// Package cart хранит корзины пользователей в памяти процесса.
package cart

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/mmeshcher/astren/internal/model"
)

// ErrLineNotFound возвращается, если строки корзины с таким идентификатором нет.
var ErrLineNotFound = errors.New("cart line not found")

// Line описывает строку корзины. Одна и та же позиция по разным ценам хранится в разных строках.
type Line struct {
	LineID   string         `json:"lineId"`
	Item     model.MenuItem `json:"item"`
	Price    float64        `json:"price"`
	Quantity int            `json:"quantity"`
}

// LineID строит идентификатор строки из позиции и итоговой цены.
func LineID(itemID string, price float64) string {
	return itemID + "-" + strconv.FormatFloat(price, 'f', -1, 64)
}

// Cart хранит корзину одного пользователя.
type Cart struct {
	mu     sync.RWMutex
	lines  []Line
	isOpen bool
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{}
}

// Add добавляет позицию по цене каталога.
func (c *Cart) Add(item model.MenuItem) {
	c.AddAtPrice(item, item.Price)
}

// AddAtPrice добавляет позицию по указанной цене либо увеличивает количество в существующей строке.
func (c *Cart) AddAtPrice(item model.MenuItem, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := LineID(item.ID, price)
	for i := range c.lines {
		if c.lines[i].LineID == id {
			c.lines[i].Quantity++
			return
		}
	}

	c.lines = append(c.lines, Line{
		LineID:   id,
		Item:     item,
		Price:    price,
		Quantity: 1,
	})
}

// Remove удаляет строку корзины.
func (c *Cart) Remove(lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	c.lines = slices.Delete(c.lines, idx, idx+1)
	return nil
}

// UpdateQuantity меняет количество; неположительное значение удаляет строку.
func (c *Cart) UpdateQuantity(lineID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(lineID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	c.lines[idx].Quantity = quantity
	return nil
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines возвращает копию строк корзины.
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.lines)
}

// Subtotal возвращает сумму строк без скидок и налогов.
func (c *Cart) Subtotal() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sum float64
	for _, l := range c.lines {
		sum += l.Price * float64(l.Quantity)
	}
	return sum
}

// OpenView помечает корзину как показанную пользователю.
func (c *Cart) OpenView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = true
}

// Toggle переключает видимость корзины.
func (c *Cart) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = !c.isOpen
	return c.isOpen
}

// IsOpen сообщает, показана ли корзина.
func (c *Cart) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isOpen
}

func (c *Cart) indexLocked(lineID string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.LineID == lineID })
}

// Store хранит корзины по идентификатору пользователя.
type Store struct {
	mu    sync.RWMutex
	carts map[int64]*Cart
}

// NewStore создаёт пустое хранилище корзин.
func NewStore() *Store {
	return &Store{carts: make(map[int64]*Cart)}
}

// Get возвращает корзину пользователя, создавая её при первом обращении.
func (s *Store) Get(userID int64) *Cart {
	s.mu.RLock()
	c, ok := s.carts[userID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[userID]; ok {
		return c
	}
	c = New()
	s.carts[userID] = c
	return c
}
