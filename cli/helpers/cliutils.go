package helpers

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

// RequireFlags checks that every named string flag was given a non-blank
// value.
func RequireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return UsageError(fmt.Sprintf("unknown flag '%s'", name))
		}
		if !cmd.Flags().Changed(name) || strings.TrimSpace(value) == "" {
			return UsageError(fmt.Sprintf("required flag '--%s' not specified", name))
		}
	}
	return nil
}

// GetFlagStringWithDefault gets a string flag with a default value
func GetFlagStringWithDefault(cmd *cobra.Command, flagName, defaultValue string) string {
	if value, err := cmd.Flags().GetString(flagName); err == nil && value != "" {
		return value
	}
	return defaultValue
}

// GetFlagBoolWithDefault gets a boolean flag with a default value
func GetFlagBoolWithDefault(cmd *cobra.Command, flagName string, defaultValue bool) bool {
	if value, err := cmd.Flags().GetBool(flagName); err == nil {
		return value
	}
	return defaultValue
}

// GetFlagIntWithDefault gets an integer flag with a default value
func GetFlagIntWithDefault(cmd *cobra.Command, flagName string, defaultValue int) int {
	if value, err := cmd.Flags().GetInt(flagName); err == nil {
		return value
	}
	return defaultValue
}

// Truncate returns s cut to at most maxLength runes. Longer values end
// with an ellipsis when there is room for one.
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	if maxLength <= 1 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-1]) + "…"
}

// CommandOutput writes JSON to the command's stdout, highlighted only when
// that is the process terminal.
func CommandOutput(cmd *cobra.Command) *OutputWriter {
	w := cmd.OutOrStdout()
	return NewOutputWriter(w, w == os.Stdout && ShouldUseColor())
}
