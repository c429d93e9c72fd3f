// Package notify реализует короткие уведомления, которые исчезают сами.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// VisibleFor задаёт время показа уведомления до начала скрытия.
	VisibleFor = 2500 * time.Millisecond
	// FadeOut задаёт длительность анимации скрытия.
	FadeOut = 500 * time.Millisecond
)

// Toast хранит одно текущее уведомление. Новое уведомление заменяет старое
// и перезапускает таймер скрытия, очереди нет.
type Toast struct {
	mu      sync.Mutex
	message string
	seq     uint64
	timer   *time.Timer
	ttl     time.Duration
}

// NewToast создаёт пустое уведомление со стандартным временем жизни.
func NewToast() *Toast {
	return &Toast{ttl: VisibleFor + FadeOut}
}

// Notify показывает сообщение.
func (t *Toast) Notify(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.message = message
	t.seq++

	if t.timer != nil {
		t.timer.Stop()
	}

	seq := t.seq
	t.timer = time.AfterFunc(t.ttl, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.seq == seq {
			t.message = ""
			t.timer = nil
		}
	})
}

// Current возвращает показываемое сообщение и признак его наличия.
func (t *Toast) Current() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message, t.message != ""
}

// Center раздаёт уведомления по пользователям.
type Center struct {
	mu     sync.Mutex
	toasts map[int64]*Toast
	logger *zap.Logger
}

// NewCenter создаёт центр уведомлений.
func NewCenter(logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		toasts: make(map[int64]*Toast),
		logger: logger,
	}
}

// For возвращает уведомление пользователя.
func (c *Center) For(userID int64) *Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.toasts[userID]
	if !ok {
		t = NewToast()
		c.toasts[userID] = t
	}
	return t
}

// Notifier возвращает адаптер, отправляющий уведомления конкретному пользователю.
func (c *Center) Notifier(userID int64) *UserNotifier {
	return &UserNotifier{center: c, userID: userID}
}

// UserNotifier отправляет уведомления одному пользователю.
type UserNotifier struct {
	center *Center
	userID int64
}

// Notify показывает сообщение пользователю.
func (n *UserNotifier) Notify(message string) {
	n.center.logger.Debug("notification", zap.Int64("userID", n.userID), zap.String("message", message))
	n.center.For(n.userID).Notify(message)
}
