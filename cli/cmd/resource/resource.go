// Package resource builds the list, create, update, delete and browse
// commands shared by every managed collection.
package resource

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/api"
	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/engine/item"
)

// Spec describes a managed collection exposed as a command group.
type Spec struct {
	Use     string
	Aliases []string
	Short   string
	Schema  item.Schema
	Source  func(*api.Client) cmd.Source
}

// Users is the users command group.
var Users = Spec{
	Use:     "users",
	Aliases: []string{"usuarios"},
	Short:   "Manage panel users",
	Schema:  item.Users,
	Source:  func(c *api.Client) cmd.Source { return c.Users() },
}

// Branches is the branches command group.
var Branches = Spec{
	Use:     "branches",
	Aliases: []string{"sucursales"},
	Short:   "Manage branches",
	Schema:  item.Branches,
	Source:  func(c *api.Client) cmd.Source { return c.Branches() },
}

// UsersCmd returns the users command group.
func UsersCmd() *cobra.Command { return NewCommand(Users) }

// BranchesCmd returns the branches command group.
func BranchesCmd() *cobra.Command { return NewCommand(Branches) }

// NewCommand creates the command group for spec.
func NewCommand(spec Spec) *cobra.Command {
	root := &cobra.Command{
		Use:     spec.Use,
		Aliases: spec.Aliases,
		Short:   spec.Short,
	}
	root.AddCommand(
		listCmd(spec),
		browseCmd(spec),
		createCmd(spec),
		updateCmd(spec),
		deleteCmd(spec),
	)
	return root
}

// addFieldFlags declares one string flag per form field of the schema.
func addFieldFlags(c *cobra.Command, schema item.Schema, update bool) {
	for _, f := range schema.Fields {
		if f.Hidden || (update && f.Immutable) {
			continue
		}
		usage := f.Label
		if f.Secret && update {
			usage += " (vacío mantiene la actual)"
		}
		c.Flags().String(f.Name, "", usage)
	}
}

// fieldValues collects the field flags given on the command line.
func fieldValues(c *cobra.Command, schema item.Schema) (map[string]string, error) {
	values := make(map[string]string)
	for _, f := range schema.Fields {
		flag := c.Flags().Lookup(f.Name)
		if flag == nil || !flag.Changed {
			continue
		}
		v, err := c.Flags().GetString(f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.Name, err)
		}
		values[f.Name] = v
	}
	return values, nil
}
