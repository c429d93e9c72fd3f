package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestToast_ReplacesMessage(t *testing.T) {
	toast := NewToast()

	_, ok := toast.Current()
	assert.False(t, ok)

	toast.Notify("first")
	toast.Notify("second")

	msg, ok := toast.Current()
	assert.True(t, ok)
	assert.Equal(t, "second", msg)
}

func TestToast_DismissesAfterTTL(t *testing.T) {
	toast := NewToast()
	toast.ttl = 20 * time.Millisecond

	toast.Notify("hello")

	assert.Eventually(t, func() bool {
		_, ok := toast.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestToast_RenotifyRestartsTimer(t *testing.T) {
	toast := NewToast()
	toast.ttl = 80 * time.Millisecond

	toast.Notify("first")
	time.Sleep(50 * time.Millisecond)
	toast.Notify("second")
	time.Sleep(50 * time.Millisecond)

	// первый таймер уже истёк бы, но сообщение обновлялось
	msg, ok := toast.Current()
	assert.True(t, ok)
	assert.Equal(t, "second", msg)
}

func TestCenter_PerUser(t *testing.T) {
	c := NewCenter(zap.NewNop())

	c.Notifier(1).Notify("meal_selected")

	msg, ok := c.For(1).Current()
	assert.True(t, ok)
	assert.Equal(t, "meal_selected", msg)

	_, ok = c.For(2).Current()
	assert.False(t, ok)
}
