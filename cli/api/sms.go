package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
)

const dateLayout = "2006-01-02"

// SMSLogFilter narrows the SMS log. Zero values are left out.
type SMSLogFilter struct {
	UserID int
	From   time.Time
	To     time.Time
	Estado string
}

// Query renders the filter as the backend query parameters.
func (f SMSLogFilter) Query() url.Values {
	q := url.Values{}
	if f.UserID > 0 {
		q.Set("usuario_id", strconv.Itoa(f.UserID))
	}
	if !f.From.IsZero() {
		q.Set("fecha_inicio", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("fecha_fin", f.To.Format(dateLayout))
	}
	if s := strings.TrimSpace(f.Estado); s != "" {
		q.Set("estado", s)
	}
	return q
}

// SMSLog returns the read-only log resource narrowed by filter. Search runs
// over the filtered log locally.
func (c *Client) SMSLog(filter SMSLogFilter) *Resource {
	return c.Resource(item.SMSLog, SMSLogRoutes).WithFilter(filter.Query())
}

// UserOption is an entry of the user picker used by the SMS log filter.
type UserOption struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
}

// UserOptions lists the users the SMS log can be filtered by.
func (c *Client) UserOptions(ctx context.Context) ([]UserOption, error) {
	body, header, err := c.do(ctx, request{op: apperr.OpList, method: http.MethodGet, path: userOptionsPath})
	if err != nil {
		return nil, err
	}
	out := []UserOption{}
	if !isJSON(header, body) {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperr.New(apperr.KindParse, apperr.OpList, err)
	}
	return out, nil
}

// ResolveUserID maps a user name to its numeric ID for the log filter.
func (c *Client) ResolveUserID(ctx context.Context, name string) (int, error) {
	opts, err := c.UserOptions(ctx)
	if err != nil {
		return 0, err
	}
	for _, o := range opts {
		if item.SameKey(o.Nombre, strings.TrimSpace(name)) {
			return o.ID, nil
		}
	}
	return 0, apperr.FromStatus(apperr.OpGet, http.StatusNotFound, "")
}

// CurrentUser is the identity the backend associates with the session.
type CurrentUser struct {
	Usuario string `json:"usuario"`
	Rol     string `json:"rol"`
}

// CurrentUser reads the session identity from the backend.
func (c *Client) CurrentUser(ctx context.Context) (CurrentUser, error) {
	body, header, err := c.do(ctx, request{op: apperr.OpGet, method: http.MethodGet, path: currentUserPath})
	if err != nil {
		return CurrentUser{}, err
	}
	obj, err := decodeObject(header, body)
	if err != nil {
		return CurrentUser{}, apperr.New(apperr.KindParse, apperr.OpGet, err)
	}
	u := CurrentUser{}
	u.Usuario, _ = obj["usuario"].(string)
	u.Rol, _ = obj["rol"].(string)
	return u, nil
}
