package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"

	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/notify"
)

// OutputWriter writes command results. JSON output is indented and, on a
// color terminal, highlighted.
type OutputWriter struct {
	writer io.Writer
	color  bool
}

// NewOutputWriter creates a new output writer
func NewOutputWriter(writer io.Writer, color bool) *OutputWriter {
	return &OutputWriter{writer: writer, color: color}
}

// WriteJSON writes data as JSON
func (ow *OutputWriter) WriteJSON(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	out := pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  "})
	if ow.color {
		out = pretty.Color(out, nil)
	}
	_, err = ow.writer.Write(out)
	return err
}

// WriteJSON writes data to stdout.
func WriteJSON(data any) error {
	return NewOutputWriter(os.Stdout, ShouldUseColor()).WriteJSON(data)
}

// FormatError formats errors based on output mode
func FormatError(err error, mode models.Mode) string {
	if err == nil {
		return ""
	}
	cliErr := Categorize(err, nil)
	if mode == models.ModeJSON {
		return formatErrorJSON(cliErr)
	}
	return formatErrorTUI(cliErr)
}

// formatErrorJSON formats errors for JSON output
func formatErrorJSON(err *CliError) string {
	body := map[string]any{
		"error":   err.Message,
		"code":    err.Code,
		"details": err.Details,
	}
	if len(err.Context) > 0 {
		body["context"] = err.Context
	}
	raw, mErr := json.Marshal(body)
	if mErr != nil {
		return `{"error": "JSON marshaling failed", "details": ""}`
	}
	return string(pretty.Pretty(raw))
}

// formatErrorTUI formats errors for terminal output with colors and icons
func formatErrorTUI(err *CliError) string {
	icon := "❌"
	switch {
	case IsNetworkError(err):
		icon = "🌐"
	case IsAuthError(err):
		icon = "🔐"
	case IsTimeoutError(err):
		icon = "⏰"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	out := fmt.Sprintf("%s %s", icon, style.Render(err.Message))
	if err.Details != "" && err.Details != err.Message {
		detail := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
		out += "\n" + detail.Render("Detalle: "+err.Details)
	}
	return out
}

// OutputError outputs an error to stderr in the appropriate format
func OutputError(err error, mode models.Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err, mode))
}

// PrintNotification writes a one-line toast to stderr.
func PrintNotification(message string, severity notify.Severity) {
	if !ShouldUseColor() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", severity, message)
		return
	}
	fmt.Fprintln(os.Stderr, styles.ToastStyle(severity).Render(message))
}
