package deal

import (
	"context"
	"sync"
	"time"

	"github.com/mmeshcher/astren/internal/model"
)

// Badge описывает акцию с признаком доступности для витрины.
type Badge struct {
	Deal       model.Deal `json:"deal"`
	Active     bool       `json:"active"`
	Redeemable bool       `json:"redeemable"`
}

// DealSource отдаёт текущий снимок каталога акций.
type DealSource interface {
	Deals() []model.Deal
}

// Board пересчитывает признаки доступности акций, пока их кто-то просматривает.
// Таймер запускается с первым подписчиком и останавливается с уходом последнего.
type Board struct {
	gate     Gate
	source   DealSource
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	subs   map[int]chan []Badge
	nextID int
	last   []Badge
	stop   context.CancelFunc
}

// NewBoard создаёт витрину акций.
func NewBoard(gate Gate, source DealSource, interval time.Duration) *Board {
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return &Board{
		gate:     gate,
		source:   source,
		interval: interval,
		now:      time.Now,
		subs:     make(map[int]chan []Badge),
	}
}

// Snapshot вычисляет признаки доступности на текущий момент.
func (b *Board) Snapshot() []Badge {
	now := b.now()
	deals := b.source.Deals()

	badges := make([]Badge, 0, len(deals))
	for _, d := range deals {
		active := b.gate.Redeemable(d, now)
		badges = append(badges, Badge{
			Deal:       d,
			Active:     active,
			Redeemable: active && d.Rules != nil,
		})
	}
	return badges
}

// Subscribe регистрирует просмотр витрины. Канал сразу получает текущий снимок,
// затем только изменившиеся. Возвращаемая функция отменяет подписку.
func (b *Board) Subscribe() (<-chan []Badge, func()) {
	snapshot := b.Snapshot()

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan []Badge, 1)
	ch <- snapshot
	b.subs[id] = ch

	if b.stop == nil {
		b.last = snapshot
		ctx, cancel := context.WithCancel(context.Background())
		b.stop = cancel
		go b.loop(ctx)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

// Running сообщает, работает ли периодический пересчёт.
func (b *Board) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stop != nil
}

func (b *Board) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)

	if len(b.subs) == 0 && b.stop != nil {
		b.stop()
		b.stop = nil
		b.last = nil
	}
}

func (b *Board) loop(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.refresh(ctx)
		}
	}
}

func (b *Board) refresh(ctx context.Context) {
	badges := b.Snapshot()

	b.mu.Lock()
	defer b.mu.Unlock()

	// подписчики могли уйти, пока считался снимок
	if ctx.Err() != nil || badgesEqual(b.last, badges) {
		return
	}
	b.last = badges

	for _, ch := range b.subs {
		select {
		case ch <- badges:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- badges
		}
	}
}

func badgesEqual(a, b []Badge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Deal.ID != b[i].Deal.ID ||
			a[i].Active != b[i].Active ||
			a[i].Redeemable != b[i].Redeemable {
			return false
		}
	}
	return true
}
