package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestController_Push(t *testing.T) {
	c := NewController()

	c.Push(Info("hello"))

	assert.True(t, c.HasToasts())
	assert.Len(t, c.toasts, 1)
	assert.Equal(t, "hello", c.toasts[0].notification.Message)
	assert.Equal(t, defaultToastTTL, c.toasts[0].remaining)
}

func TestController_Push_evicts_oldest_at_max(t *testing.T) {
	c := NewController()

	for i := 0; i < defaultMaxToasts+2; i++ {
		c.Push(Info(time.Duration(i).String()))
	}

	assert.Len(t, c.toasts, defaultMaxToasts)
	// Oldest two should have been evicted; first remaining is "2".
	assert.Equal(t, "2ns", c.toasts[0].notification.Message)
}

func TestController_Tick_decrements_TTL(t *testing.T) {
	c := NewController()
	c.Push(Info("tick"))

	c.Tick(1 * time.Second)

	assert.Equal(t, defaultToastTTL-1*time.Second, c.toasts[0].remaining)
}

func TestController_Tick_removes_expired(t *testing.T) {
	c := NewController()
	c.Push(Error("expires"))
	c.Push(Info("survives"))

	c.toasts[0].remaining = 50 * time.Millisecond
	c.Tick(100 * time.Millisecond)

	assert.Len(t, c.toasts, 1)
	assert.Equal(t, "survives", c.toasts[0].notification.Message)
}

func TestController_Dismiss(t *testing.T) {
	c := NewController()
	c.Push(Info("first"))
	c.Push(Warning("second"))

	c.Dismiss()

	assert.Len(t, c.toasts, 1)
	assert.Equal(t, "first", c.toasts[0].notification.Message)
}

func TestController_Dismiss_empty(t *testing.T) {
	c := NewController()
	c.Dismiss() // should not panic
	assert.False(t, c.HasToasts())
}

func TestController_DismissAll(t *testing.T) {
	c := NewController()
	c.Push(Info("a"))
	c.Push(Info("b"))

	c.DismissAll()

	assert.False(t, c.HasToasts())
	assert.Empty(t, c.toasts)
}

func TestController_View_empty_is_blank(t *testing.T) {
	c := NewController()
	assert.Equal(t, "", c.View())
}

func TestController_Ticking(t *testing.T) {
	c := NewController()
	assert.False(t, c.Ticking())

	c.SetTicking(true)
	assert.True(t, c.Ticking())

	c.SetTicking(false)
	assert.False(t, c.Ticking())
}
