// Package toast manages transient notification banners shown over the
// main view: push, eviction, TTL countdown, and dismissal.
package toast

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/theme"
)

// Level classifies a toast for styling.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Notification is one toast payload.
type Notification struct {
	Level   Level
	Message string
}

// Info builds an informational notification.
func Info(msg string) Notification {
	return Notification{Level: LevelInfo, Message: msg}
}

// Warning builds a warning notification.
func Warning(msg string) Notification {
	return Notification{Level: LevelWarning, Message: msg}
}

// Error builds an error notification.
func Error(msg string) Notification {
	return Notification{Level: LevelError, Message: msg}
}

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 5
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 50
)

// TickMsg drives the toast TTL countdown.
type TickMsg time.Time

// ScheduleTick returns the command that emits the next TickMsg.
func ScheduleTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type toast struct {
	notification Notification
	remaining    time.Duration
}

// Controller manages the lifecycle of active toasts.
type Controller struct {
	toasts  []toast
	ticking bool
}

// NewController creates an empty toast controller.
func NewController() *Controller {
	return &Controller{}
}

// Push adds a notification to the toast stack. If the stack exceeds
// defaultMaxToasts, the oldest toast is evicted.
func (c *Controller) Push(n Notification) {
	c.toasts = append(c.toasts, toast{
		notification: n,
		remaining:    defaultToastTTL,
	})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes
// any that have expired.
func (c *Controller) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest (bottom-most) toast.
func (c *Controller) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

// DismissAll removes all active toasts.
func (c *Controller) DismissAll() {
	c.toasts = c.toasts[:0]
}

// HasToasts returns true if there are any active toasts.
func (c *Controller) HasToasts() bool {
	return len(c.toasts) > 0
}

// Ticking returns whether the tick timer is currently running.
func (c *Controller) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *Controller) SetTicking(v bool) {
	c.ticking = v
}

// View renders the toast stack as a single string, oldest at top.
func (c *Controller) View() string {
	if len(c.toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(c.toasts))
	for _, t := range c.toasts {
		rendered = append(rendered, renderToast(t))
	}
	return strings.Join(rendered, "\n")
}

func renderToast(t toast) string {
	var icon string
	var color lipgloss.AdaptiveColor

	switch t.notification.Level {
	case LevelError:
		icon = "✗"
		color = theme.ColorRed
	case LevelWarning:
		icon = "▲"
		color = theme.ColorYellow
	default:
		icon = "●"
		color = theme.ColorBlue
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Foreground(theme.ColorWhite).
		Padding(0, 1)

	return style.Width(toastWidth).Render(icon + " " + t.notification.Message)
}
