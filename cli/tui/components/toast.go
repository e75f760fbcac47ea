package components

import (
	"strings"
	"time"

	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/notify"
)

const defaultToastLimit = 3

// ToastStrip shows the latest notifications until they expire.
type ToastStrip struct {
	TTL   time.Duration
	Limit int
	items []notify.Notification
}

// NewToastStrip keeps each toast visible for ttl. A zero ttl keeps them
// until they are pushed out by newer ones.
func NewToastStrip(ttl time.Duration) ToastStrip {
	return ToastStrip{TTL: ttl, Limit: defaultToastLimit}
}

// Push adds n, dropping the oldest toast beyond the limit.
func (t *ToastStrip) Push(n notify.Notification) {
	t.items = append(t.items, n)
	limit := t.Limit
	if limit <= 0 {
		limit = defaultToastLimit
	}
	if over := len(t.items) - limit; over > 0 {
		t.items = t.items[over:]
	}
}

// Prune drops toasts older than the TTL. It reports whether any remain.
func (t *ToastStrip) Prune(now time.Time) bool {
	if t.TTL <= 0 {
		return len(t.items) > 0
	}
	kept := t.items[:0]
	for _, n := range t.items {
		if now.Sub(n.At) < t.TTL {
			kept = append(kept, n)
		}
	}
	t.items = kept
	return len(t.items) > 0
}

// Items returns the visible toasts, oldest first.
func (t *ToastStrip) Items() []notify.Notification {
	return append([]notify.Notification(nil), t.items...)
}

// View renders one line per toast.
func (t *ToastStrip) View() string {
	if len(t.items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(t.items))
	for _, n := range t.items {
		lines = append(lines, styles.ToastStyle(n.Severity).Render(n.Message))
	}
	return strings.Join(lines, "\n")
}
