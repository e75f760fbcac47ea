package resource

import (
	"context"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/mutation"
)

// MutationOutput is the JSON document printed after a create or update.
type MutationOutput struct {
	Data mutation.Result `json:"data"`
}

// DeleteOutput is the JSON document printed after a delete.
type DeleteOutput struct {
	Data struct {
		Key     string `json:"key"`
		Deleted bool   `json:"deleted"`
	} `json:"data"`
}

func createCmd(spec Spec) *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", spec.Schema.Noun),
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					return runSubmit(ctx, c, e, spec, "", false)
				},
				TUI: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					return runSubmit(ctx, c, e, spec, "", true)
				},
			}, args)
		},
	}
	addFieldFlags(c, spec.Schema, false)
	return c
}

func updateCmd(spec Spec) *cobra.Command {
	c := &cobra.Command{
		Use:   "update KEY",
		Short: fmt.Sprintf("Update a %s", spec.Schema.Noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
					return runSubmit(ctx, c, e, spec, args[0], false)
				},
				TUI: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
					return runSubmit(ctx, c, e, spec, args[0], true)
				},
			}, args)
		},
	}
	addFieldFlags(c, spec.Schema, true)
	return c
}

func deleteCmd(spec Spec) *cobra.Command {
	c := &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete a %s", spec.Schema.Noun),
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, args []string) error {
				return runDelete(ctx, c, e, spec, args[0])
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: handler,
				TUI:  handler,
			}, args)
		},
	}
	c.Flags().BoolP("force", "f", false, "Delete without asking for confirmation")
	return c
}

// runSubmit creates a record, or updates the record at key. With
// interactive set and fields left to fill, a form is shown first.
func runSubmit(
	ctx context.Context,
	c *cobra.Command,
	e *cmd.CommandExecutor,
	spec Spec,
	key string,
	interactive bool,
) error {
	values, err := fieldValues(c, spec.Schema)
	if err != nil {
		return err
	}
	src := spec.Source(e.GetClient())
	list := e.ListController(ctx, spec.Schema, src)
	defer list.Close()
	if _, err := list.LoadAll(ctx); err != nil {
		return err
	}
	coord := e.Coordinator(ctx, spec.Schema, src, list)

	form := coord.BeginCreate()
	if key != "" {
		if form, err = coord.BeginEdit(ctx, key); err != nil {
			return err
		}
	}
	if interactive && needsForm(spec.Schema, form, values) {
		prefilled := form
		prefilled.Values = maps.Clone(form.Values)
		maps.Copy(prefilled.Values, values)
		if values, err = cmd.FillForm(ctx, spec.Schema, prefilled); err != nil {
			return err
		}
	}

	res, err := coord.Submit(ctx, values)
	if err != nil {
		return err
	}
	if res.EditedSelf && e.GetSession() != nil {
		e.GetSession().Set(ctx, res.NewIdentity, e.GetSession().Role())
	}
	if interactive {
		return nil
	}
	return helpers.CommandOutput(c).WriteJSON(MutationOutput{Data: res})
}

// needsForm reports whether values leave a required field of f empty, or
// whether nothing was given at all for an edit.
func needsForm(schema item.Schema, f mutation.Form, values map[string]string) bool {
	if f.Mode == mutation.ModeEdit {
		return len(values) == 0
	}
	for _, field := range schema.Fields {
		if field.Requirement == item.Optional || field.Hidden {
			continue
		}
		if values[field.Name] == "" && field.Default == "" {
			return true
		}
	}
	return false
}

func runDelete(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, spec Spec, key string) error {
	confirmer, err := e.Confirmer(helpers.GetFlagBoolWithDefault(c, "force", false))
	if err != nil {
		return err
	}
	src := spec.Source(e.GetClient())
	list := e.ListController(ctx, spec.Schema, src)
	defer list.Close()
	if _, err := list.LoadAll(ctx); err != nil {
		return err
	}
	coord := e.Coordinator(ctx, spec.Schema, src, list, mutation.WithConfirmer(confirmer))
	if err := coord.Remove(ctx, key); err != nil {
		return err
	}
	if e.GetMode() != models.ModeJSON {
		return nil
	}
	var out DeleteOutput
	out.Data.Key = key
	out.Data.Deleted = true
	return helpers.CommandOutput(c).WriteJSON(out)
}
