package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/pkg/config"
)

const defaultTerminalWidth = 100

// isRunningInCI checks if we're running in a CI/CD environment
func isRunningInCI() bool {
	if os.Getenv("CI") != "" {
		return true
	}
	ciVars := []string{
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"BUILDKITE",
		"DRONE",
		"TF_BUILD",
		"JENKINS_URL",
		"CONTINUOUS_INTEGRATION",
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// isInteractiveEnvironment checks if we're in an interactive environment
func isInteractiveEnvironment(cfg *config.Config) bool {
	if cfg.CLI.Interactive {
		return true
	}
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return false
	}
	t := os.Getenv("TERM")
	return t != "dumb" && t != ""
}

// DetectMode picks JSON or TUI output. An explicit --format wins; auto
// chooses TUI only on an interactive terminal outside CI.
func DetectMode(cfg *config.Config) models.Mode {
	if cfg == nil {
		return models.ModeJSON
	}
	switch OutputFormat(cfg.CLI.Format) {
	case OutputFormatJSON:
		return models.ModeJSON
	case OutputFormatTUI:
		return models.ModeTUI
	}
	if isInteractiveEnvironment(cfg) {
		return models.ModeTUI
	}
	return models.ModeJSON
}

// ShouldUseColor determines if colored output should be used on stdout
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" || isRunningInCI() {
		return false
	}
	return isTerminal(os.Stdout)
}

// TerminalWidth returns the width of stdout, or a default when stdout is
// not a terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTerminalWidth
	}
	return w
}
