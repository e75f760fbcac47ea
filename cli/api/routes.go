package api

import (
	"net/http"
	"net/url"
	"strings"
)

// Routes binds the operations of a resource to backend paths. Paths may
// contain a {key} placeholder; an empty path marks the operation as not
// offered by the backend.
type Routes struct {
	List string
	// SearchParam is the query parameter List accepts for server side
	// filtering. When empty, Search filters the full list locally.
	SearchParam  string
	Get          string
	Create       string
	Update       string
	Delete       string
	UpdateMethod string
}

// UserRoutes are the panel user endpoints.
var UserRoutes = Routes{
	List:         "/usuarios",
	SearchParam:  "search",
	Get:          "/usuario-detalle/{key}",
	Create:       "/crear-usuario",
	Update:       "/editar-usuario/{key}",
	Delete:       "/eliminar-usuario/{key}",
	UpdateMethod: http.MethodPut,
}

// BranchRoutes are the sucursal endpoints. The backend has no text search
// and no detail route; Get resolves from the list.
var BranchRoutes = Routes{
	List:         "/api/sucursales",
	Create:       "/api/sucursales",
	Update:       "/api/sucursales/{key}",
	Delete:       "/api/sucursales/{key}",
	UpdateMethod: http.MethodPut,
}

// SMSLogRoutes is the read-only log of sent codes.
var SMSLogRoutes = Routes{
	List: "/api/admin/sms/todos",
}

// SMSDispatchRoutes asks the backend to send a verification code.
var SMSDispatchRoutes = Routes{
	Create: "/send-sms",
}

const (
	currentUserPath = "/usuario-actual"
	userOptionsPath = "/api/usuarios"
	smsBalancePath  = "/api/admin/sms/saldo"
	smsExpiryPath   = "/send-sms/obtener-vencimiento"
)

// expand substitutes the escaped key into a path pattern.
func expand(pattern, key string) string {
	return strings.ReplaceAll(pattern, "{key}", url.PathEscape(key))
}
