package api

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/mutation"
)

var (
	_ listview.DataSource = (*Resource)(nil)
	_ mutation.Backend    = (*Resource)(nil)
)

// Resource is a schema bound to its routes. It serves list views and
// mutation coordinators alike.
type Resource struct {
	client *Client
	schema item.Schema
	routes Routes
	filter url.Values
}

// Resource binds schema to routes.
func (c *Client) Resource(schema item.Schema, routes Routes) *Resource {
	return &Resource{client: c, schema: schema, routes: routes}
}

func (c *Client) Users() *Resource { return c.Resource(item.Users, UserRoutes) }

func (c *Client) Branches() *Resource { return c.Resource(item.Branches, BranchRoutes) }

func (c *Client) SMSDispatch() *Resource { return c.Resource(item.SMSDispatch, SMSDispatchRoutes) }

// WithFilter returns a copy of r whose list requests carry q.
func (r *Resource) WithFilter(q url.Values) *Resource {
	cp := *r
	cp.filter = maps.Clone(q)
	return &cp
}

func (r *Resource) Schema() item.Schema { return r.schema }

func (r *Resource) List(ctx context.Context) ([]item.Item, error) {
	return r.list(ctx, apperr.OpList, r.filter)
}

// Search filters on the server when the backend supports it and over the
// full list otherwise.
func (r *Resource) Search(ctx context.Context, text string) ([]item.Item, error) {
	if r.routes.SearchParam == "" {
		all, err := r.list(ctx, apperr.OpSearch, r.filter)
		if err != nil {
			return nil, err
		}
		out := make([]item.Item, 0, len(all))
		for _, it := range all {
			if it.Matches(text, r.schema.SearchFields) {
				out = append(out, it)
			}
		}
		return out, nil
	}
	q := maps.Clone(r.filter)
	if q == nil {
		q = url.Values{}
	}
	q.Set(r.routes.SearchParam, text)
	return r.list(ctx, apperr.OpSearch, q)
}

func (r *Resource) list(ctx context.Context, op apperr.Op, q url.Values) ([]item.Item, error) {
	if r.routes.List == "" {
		return nil, apperr.New(apperr.KindUnexpected, op, mutation.ErrUnsupported)
	}
	body, header, err := r.client.do(ctx, request{op: op, method: http.MethodGet, path: r.routes.List, query: q})
	if err != nil {
		return nil, err
	}
	raws, err := decodeList(header, body)
	if err != nil {
		return nil, apperr.New(apperr.KindParse, op, err)
	}
	items, err := r.schema.DecodeAll(raws)
	if err != nil {
		return nil, apperr.New(apperr.KindParse, op, err)
	}
	return items, nil
}

// Get fetches one record. Resources without a detail route resolve it from
// the list.
func (r *Resource) Get(ctx context.Context, key string) (item.Item, error) {
	if r.routes.Get == "" {
		all, err := r.list(ctx, apperr.OpGet, r.filter)
		if err != nil {
			return item.Item{}, err
		}
		if it, ok := item.Find(all, key); ok {
			return it, nil
		}
		return item.Item{}, apperr.FromStatus(apperr.OpGet, http.StatusNotFound, "")
	}
	body, header, err := r.client.do(ctx, request{op: apperr.OpGet, method: http.MethodGet, path: expand(r.routes.Get, key)})
	if err != nil {
		return item.Item{}, err
	}
	obj, err := decodeObject(header, body)
	if err != nil {
		return item.Item{}, apperr.New(apperr.KindParse, apperr.OpGet, err)
	}
	if _, ok := obj[r.schema.KeyField]; !ok {
		obj[r.schema.KeyField] = key
	}
	it, err := r.schema.Decode(obj)
	if err != nil {
		return item.Item{}, apperr.New(apperr.KindParse, apperr.OpGet, err)
	}
	return it, nil
}

func (r *Resource) Create(ctx context.Context, body map[string]any) (mutation.Outcome, error) {
	return r.mutate(ctx, apperr.OpCreate, http.MethodPost, r.routes.Create, "", body)
}

func (r *Resource) Update(ctx context.Context, key string, body map[string]any) (mutation.Outcome, error) {
	method := r.routes.UpdateMethod
	if method == "" {
		method = http.MethodPut
	}
	return r.mutate(ctx, apperr.OpUpdate, method, r.routes.Update, key, body)
}

func (r *Resource) Delete(ctx context.Context, key string) (mutation.Outcome, error) {
	return r.mutate(ctx, apperr.OpDelete, http.MethodDelete, r.routes.Delete, key, nil)
}

func (r *Resource) mutate(
	ctx context.Context,
	op apperr.Op,
	method, pattern, key string,
	body map[string]any,
) (mutation.Outcome, error) {
	if pattern == "" {
		return mutation.Outcome{}, apperr.New(apperr.KindUnexpected, op, mutation.ErrUnsupported)
	}
	req := request{op: op, method: method, path: expand(pattern, strings.TrimSpace(key))}
	if body != nil {
		req.body = body
	}
	raw, header, err := r.client.do(ctx, req)
	if err != nil {
		return mutation.Outcome{}, err
	}
	out, err := decodeOutcome(header, raw, r.schema.KeyField)
	if err != nil {
		return mutation.Outcome{}, apperr.New(apperr.KindParse, op, err)
	}
	return out, nil
}
