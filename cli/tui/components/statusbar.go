package components

import (
	"time"

	"github.com/limitedeportes/panel/cli/tui/styles"
)

// StatusBar displays the session identity, the pager and a clock. Spinner
// is the frame shown while Loading; without one a clock derived frame is
// used.
type StatusBar struct {
	Width   int
	Left    string
	Center  string
	Right   string
	Loading bool
	Spinner string
}

// NewStatusBar creates a status bar for the given width
func NewStatusBar(width int) StatusBar {
	return StatusBar{Width: width}
}

// View renders the status bar
func (s StatusBar) View() string {
	left := s.Left
	if s.Loading {
		frame := s.Spinner
		if frame == "" {
			frame = spinnerFrame()
		}
		if left != "" {
			left = frame + " " + left
		} else {
			left = frame
		}
	}
	right := s.Right
	if right == "" {
		right = time.Now().Format("15:04:05")
	}
	return styles.RenderStatusBar(s.Width, left, s.Center, right)
}

// spinnerFrame returns a frame derived from the wall clock so the bar
// animates on every redraw without its own tick.
func spinnerFrame() string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := int(time.Now().UnixMilli()/100) % len(frames)
	return styles.SpinnerStyle.Render(frames[frame])
}
