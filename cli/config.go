package cli

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/pkg/config"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and validate the active configuration",
	}
	cmd.AddCommand(configShowCmd(), configValidateCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration values and their sources",
		Long: `Display the active configuration. With --sources, each key is printed
next to the source (cli, yaml, env or default) that provided it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := helpers.GetFlagStringWithDefault(cmd, "output", "table")
			showSources := helpers.GetFlagBoolWithDefault(cmd, "sources", false)
			manager := config.ManagerFromContext(cmd.Context())
			return writeConfig(cmd, manager.Get(), manager.Service, output, showSources)
		},
	}
	cmd.Flags().StringP("output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().Bool("sources", false, "Show the source of each value")
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager := config.ManagerFromContext(cmd.Context())
			if err := manager.Service.Validate(manager.Get()); err != nil {
				return helpers.UsageError("Configuración inválida", err.Error())
			}
			cmd.Println("✓ Configuración válida")
			return nil
		},
	}
}

func writeConfig(cmd *cobra.Command, cfg *config.Config, svc config.Service, output string, showSources bool) error {
	flat := flattenConfig(cfg)
	switch output {
	case "json":
		doc := map[string]any{"config": flat}
		if showSources {
			doc["sources"] = configSources(flat, svc)
		}
		return helpers.CommandOutput(cmd).WriteJSON(doc)
	case "yaml":
		doc := map[string]any{"config": flat}
		if showSources {
			doc["sources"] = configSources(flat, svc)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	case "table":
		return writeConfigTable(cmd, flat, svc, showSources)
	default:
		return helpers.UsageError(fmt.Sprintf("Formato %q no soportado", output))
	}
}

func configSources(flat map[string]string, svc config.Service) map[string]config.SourceType {
	sources := make(map[string]config.SourceType, len(flat))
	for key := range flat {
		sources[key] = svc.GetSource(key)
	}
	return sources
}

func writeConfigTable(cmd *cobra.Command, flat map[string]string, svc config.Service, showSources bool) error {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if showSources {
		fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
	} else {
		fmt.Fprintln(w, "KEY\tVALUE")
	}
	for _, key := range keys {
		if showSources {
			fmt.Fprintf(w, "%s\t%s\t%s\n", key, flat[key], svc.GetSource(key))
		} else {
			fmt.Fprintf(w, "%s\t%s\n", key, flat[key])
		}
	}
	return w.Flush()
}

// flattenConfig converts cfg to dotted koanf keys. Secrets are redacted.
func flattenConfig(cfg *config.Config) map[string]string {
	out := make(map[string]string)
	if cfg == nil {
		return out
	}
	flattenValue(reflect.ValueOf(*cfg), "", out)
	return out
}

var durationType = reflect.TypeOf(time.Duration(0))

func flattenValue(v reflect.Value, prefix string, out map[string]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("koanf")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		fv := v.Field(i)
		switch {
		case field.Type == durationType:
			out[key] = time.Duration(fv.Int()).String()
		case field.Type.Kind() == reflect.Struct:
			flattenValue(fv, key, out)
		case config.IsSensitiveConfigPath(key):
			out[key] = fmt.Sprint(config.SensitiveString(fv.String()))
		default:
			out[key] = fmt.Sprint(fv.Interface())
		}
	}
}
