package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

func newTestServer(t *testing.T, mutate ...func(*config.MockConfig)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default().Mock
	cfg.Seed = true
	cfg.SessionUser = "admin"
	for _, fn := range mutate {
		fn(&cfg)
	}
	ctx := logger.ContextWithLogger(t.Context(), logger.NewForTests())
	srv, err := New(ctx, cfg)
	require.NoError(t, err)
	return srv
}

func call(t *testing.T, srv *Server, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUsers(t *testing.T) {
	t.Run("Should list seeded users and filter by search", func(t *testing.T) {
		srv := newTestServer(t)

		all := decode[[]map[string]any](t, call(t, srv, http.MethodGet, "/usuarios", nil))
		filtered := decode[[]map[string]any](t, call(t, srv, http.MethodGet, "/usuarios?search=OPER", nil))

		assert.Len(t, all, len(seedUsers))
		require.Len(t, filtered, 2)
		assert.Equal(t, "operador1", filtered[0]["usuario"])
	})

	t.Run("Should answer conflicts and missing records with a detail message", func(t *testing.T) {
		srv := newTestServer(t)

		dup := call(t, srv, http.MethodPost, "/crear-usuario", map[string]any{"usuario": "ADMIN", "password": "1234"})
		missing := call(t, srv, http.MethodGet, "/usuario-detalle/nadie", nil)

		assert.Equal(t, http.StatusConflict, dup.Code)
		assert.Equal(t, "El usuario ya existe", decode[map[string]any](t, dup)["detail"])
		assert.Equal(t, http.StatusNotFound, missing.Code)
	})

	t.Run("Should reject malformed bodies with a FastAPI style 422", func(t *testing.T) {
		srv := newTestServer(t)

		rec := call(t, srv, http.MethodPost, "/crear-usuario", map[string]any{"usuario": "x"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[map[string][]map[string]any](t, rec)
		require.NotEmpty(t, body["detail"])
		assert.Contains(t, body["detail"][0]["msg"], "failed on")
	})

	t.Run("Should flag a self rename and refuse a self delete", func(t *testing.T) {
		srv := newTestServer(t)

		upd := call(t, srv, http.MethodPut, "/editar-usuario/admin", map[string]any{"nuevo_usuario": "jefa"},
			SessionUserHeader, "Admin")
		require.Equal(t, http.StatusOK, upd.Code)
		assert.Equal(t, true, decode[map[string]any](t, upd)["editando_propio_usuario"])

		del := call(t, srv, http.MethodDelete, "/eliminar-usuario/jefa", nil, SessionUserHeader, "jefa")
		assert.Equal(t, http.StatusForbidden, del.Code)

		other := call(t, srv, http.MethodDelete, "/eliminar-usuario/tomas", nil, SessionUserHeader, "jefa")
		assert.Equal(t, http.StatusOK, other.Code)
		assert.Equal(t, true, decode[map[string]any](t, other)["ok"])
	})

	t.Run("Should resolve the current user from basic credentials", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.MockConfig) { c.SessionUser = "" })

		anon := call(t, srv, http.MethodGet, "/usuario-actual", nil)
		req := httptest.NewRequest(http.MethodGet, "/usuario-actual", http.NoBody)
		req.SetBasicAuth("lucia", "lucia2024")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		bad := httptest.NewRequest(http.MethodGet, "/usuario-actual", http.NoBody)
		bad.SetBasicAuth("lucia", "wrong")
		badRec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(badRec, bad)

		assert.Equal(t, http.StatusUnauthorized, anon.Code)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "lucia", decode[map[string]any](t, rec)["usuario"])
		assert.Equal(t, http.StatusUnauthorized, badRec.Code)
	})
}

func TestBranches(t *testing.T) {
	t.Run("Should create, rename and delete a branch", func(t *testing.T) {
		srv := newTestServer(t)

		created := call(t, srv, http.MethodPost, "/api/sucursales", map[string]any{"codigo": "010", "nombre": "Lanús"})
		dup := call(t, srv, http.MethodPost, "/api/sucursales", map[string]any{"codigo": "010", "nombre": "Otra"})
		renamed := call(t, srv, http.MethodPut, "/api/sucursales/010", map[string]any{"nombre": "Lanús Oeste"})
		deleted := call(t, srv, http.MethodDelete, "/api/sucursales/010", nil)
		gone := call(t, srv, http.MethodDelete, "/api/sucursales/010", nil)

		assert.Equal(t, http.StatusCreated, created.Code)
		assert.Equal(t, http.StatusConflict, dup.Code)
		assert.Equal(t, "Lanús Oeste", decode[map[string]any](t, renamed)["nombre"])
		assert.Equal(t, http.StatusOK, deleted.Code)
		assert.Equal(t, http.StatusNotFound, gone.Code)
	})
}

func TestSMS(t *testing.T) {
	send := map[string]any{"personId": "30111222", "phoneNumber": "1155550001", "merchantCode": "002"}

	t.Run("Should charge the balance and log the dispatch", func(t *testing.T) {
		srv := newTestServer(t)
		before := srv.Store().Balance()

		rec := call(t, srv, http.MethodPost, "/send-sms", send)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Len(t, body["verificationCode"], 4)
		assert.Contains(t, body["smsBody"], "Palermo")
		assert.True(t, srv.Store().Balance().LessThan(before))

		log := decode[[]map[string]any](t, call(t, srv, http.MethodGet, "/api/admin/sms/todos", nil))
		require.NotEmpty(t, log)
		assert.Equal(t, body["verificationCode"], log[0]["codigo"])
		assert.Equal(t, "admin", log[0]["usuario_nombre"])
		assert.NotEmpty(t, log[0]["id"])
	})

	t.Run("Should answer 402 when the balance runs short", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.MockConfig) {
			c.SMSBalance = "1"
			c.SMSCost = "1.5"
		})

		rec := call(t, srv, http.MethodPost, "/send-sms", send)

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, decode[map[string]any](t, rec)["detail"], "Saldo insuficiente")
	})

	t.Run("Should rate limit dispatches per caller", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.MockConfig) { c.SMSRate = "2-M" })

		codes := make([]int, 0, 3)
		for range 3 {
			codes = append(codes, call(t, srv, http.MethodPost, "/send-sms", send).Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("Should require a caller", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.MockConfig) { c.SessionUser = "" })

		rec := call(t, srv, http.MethodPost, "/send-sms", send)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should report the package expiry and balance", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.MockConfig) { c.SMSValidity = 10 * 24 * time.Hour })

		expiry := decode[map[string]any](t, call(t, srv, http.MethodGet, "/send-sms/obtener-vencimiento", nil))
		balance := decode[map[string]any](t, call(t, srv, http.MethodGet, "/api/admin/sms/saldo", nil))

		assert.Equal(t, true, expiry["ok"])
		assert.Equal(t, true, expiry["simulado"])
		assert.Equal(t, time.Now().AddDate(0, 0, 10).Format(time.DateOnly), expiry["fecha_vencimiento"])
		assert.Equal(t, "100.00", balance["saldo"])
	})

	t.Run("Should filter the log by date range", func(t *testing.T) {
		srv := newTestServer(t)
		from := time.Now().AddDate(0, 0, -2).Format(time.DateOnly)

		recent := decode[[]map[string]any](t, call(t, srv, http.MethodGet, "/api/admin/sms/todos?fecha_inicio="+from, nil))
		all := decode[[]map[string]any](t, call(t, srv, http.MethodGet, "/api/admin/sms/todos", nil))
		bad := call(t, srv, http.MethodGet, "/api/admin/sms/todos?fecha_fin=ayer", nil)

		assert.Len(t, recent, 2)
		assert.Len(t, all, 4)
		assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	})
}
