package resource

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/pkg/logger"
)

// ListOutput is the JSON document printed by list commands.
type ListOutput struct {
	Data []map[string]string `json:"data"`
	Meta ListMeta            `json:"meta"`
}

// ListMeta describes the page in ListOutput.
type ListMeta struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
	Mode       listview.Mode `json:"mode"`
	Filter     string        `json:"filter,omitempty"`
	Info       string        `json:"info"`
}

func listCmd(spec Spec) *cobra.Command {
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", spec.Schema.Plural),
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					src := spec.Source(e.GetClient())
					return runList(ctx, c, e, spec.Schema, src)
				},
				TUI: func(ctx context.Context, _ *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					src := spec.Source(e.GetClient())
					return e.Browse(ctx, spec.Schema, src, src)
				},
			}, args)
		},
	}
	AddListFlags(c)
	return c
}

func browseCmd(spec Spec) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: fmt.Sprintf("Browse and edit %s interactively", spec.Schema.Plural),
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				TUI: func(ctx context.Context, _ *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					src := spec.Source(e.GetClient())
					return e.Browse(ctx, spec.Schema, src, src)
				},
			}, args)
		},
	}
}

// AddListFlags declares --search and --page.
func AddListFlags(c *cobra.Command) {
	c.Flags().StringP("search", "s", "", "Filter by text on the server")
	c.Flags().IntP("page", "p", 1, "Page to print")
}

// runList loads src through a list controller and prints the requested
// page or the search results as JSON.
func runList(
	ctx context.Context,
	c *cobra.Command,
	e *cmd.CommandExecutor,
	schema item.Schema,
	src listview.DataSource,
) error {
	text := strings.TrimSpace(helpers.GetFlagStringWithDefault(c, "search", ""))
	page := helpers.GetFlagIntWithDefault(c, "page", 1)
	view, err := Collect(ctx, e, schema, src, text, page)
	if err != nil {
		return err
	}
	return helpers.CommandOutput(c).WriteJSON(NewListOutput(schema, view))
}

// Collect runs one list controller to completion: it loads src, applies a
// search when text is set, and moves to page. Renders are observed on a
// channel so the asynchronous search can be awaited.
func Collect(
	ctx context.Context,
	e *cmd.CommandExecutor,
	schema item.Schema,
	src listview.DataSource,
	text string,
	page int,
) (listview.View, error) {
	views := make(chan listview.View, 1)
	list := e.ListController(ctx, schema, src,
		listview.WithDebounce(0),
		listview.WithRenderer(listview.RendererFunc(func(v listview.View) {
			for {
				select {
				case views <- v:
					return
				default:
				}
				select {
				case <-views:
				default:
				}
			}
		})),
	)
	defer list.Close()

	if _, err := list.LoadAll(ctx); err != nil {
		return listview.View{}, err
	}
	if text == "" {
		total := list.TotalPages()
		if page < 1 || (total > 0 && page > total) {
			return listview.View{}, helpers.UsageError(fmt.Sprintf("La página %d no existe", page)).
				WithContext("total_pages", total)
		}
		list.RenderPage(page)
		return list.View(), nil
	}

	list.Search(text)
	for {
		select {
		case <-ctx.Done():
			return listview.View{}, ctx.Err()
		case v := <-views:
			if v.Searching || v.FilterText != text {
				continue
			}
			if err := list.SearchErr(); err != nil {
				logger.FromContext(ctx).Debug("search failed", "text", text, "status", v.Status, "error", err)
				return v, err
			}
			return v, nil
		}
	}
}

// NewListOutput converts v to the list JSON document. Secret fields are
// never printed.
func NewListOutput(schema item.Schema, v listview.View) ListOutput {
	out := ListOutput{
		Data: make([]map[string]string, 0, len(v.Rows)),
		Meta: ListMeta{
			Page:       v.Page,
			TotalPages: v.TotalPages,
			Total:      v.Total,
			Mode:       v.Mode,
			Filter:     v.FilterText,
			Info:       v.Info,
		},
	}
	for _, it := range v.Rows {
		row := maps.Clone(it.Fields)
		if row == nil {
			row = map[string]string{}
		}
		for _, f := range schema.Fields {
			if f.Secret {
				delete(row, f.Name)
			}
		}
		row[schema.KeyField] = it.Key
		out.Data = append(out.Data, row)
	}
	return out
}
