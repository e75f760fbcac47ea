package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/mockapi"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	return logger.ContextWithLogger(t.Context(), logger.NewForTests())
}

// startBackend serves a seeded mock backend and returns a client for it.
func startBackend(t *testing.T) (*Client, *mockapi.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mockCfg := config.Default().Mock
	mockCfg.SessionUser = ""
	srv, err := mockapi.New(testContext(t), mockCfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newTestClient(t, ts.URL, "admin"), srv
}

func newTestClient(t *testing.T, baseURL, user string) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 2 * time.Second
	cfg.Session.User = user
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("Should normalize the base URL", func(t *testing.T) {
		client := newTestClient(t, "http://localhost:8000/", "")
		assert.Equal(t, "http://localhost:8000", client.BaseURL())
	})

	t.Run("Should reject relative and non HTTP base URLs", func(t *testing.T) {
		for _, raw := range []string{"localhost:8000", "/api", "ftp://host"} {
			cfg := config.Default()
			cfg.API.BaseURL = raw
			_, err := NewClient(cfg)
			assert.Error(t, err, raw)
		}
	})

	t.Run("Should reject a nil configuration", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})
}

func TestUsersResource(t *testing.T) {
	t.Run("Should list and search users", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)

		all, err := client.Users().List(ctx)
		require.NoError(t, err)
		found, err := client.Users().Search(ctx, "luc")
		require.NoError(t, err)

		assert.Len(t, all, 7)
		assert.Equal(t, "admin", all[0].Key)
		require.Len(t, found, 1)
		assert.Equal(t, "lucia@limitedeportes.com", found[0].Get("email"))
	})

	t.Run("Should run the create, update and delete cycle", func(t *testing.T) {
		client, srv := startBackend(t)
		ctx := testContext(t)
		users := client.Users()

		created, err := users.Create(ctx, map[string]any{"usuario": "carla", "password": "1234", "rol": "operador"})
		require.NoError(t, err)
		assert.True(t, created.OK)
		assert.Equal(t, "carla", created.Key)
		assert.Equal(t, "Usuario creado correctamente", created.Message)

		updated, err := users.Update(ctx, "carla", map[string]any{"nuevo_usuario": "carla.p"})
		require.NoError(t, err)
		assert.False(t, updated.EditedSelf)
		assert.Equal(t, "carla.p", updated.Key)

		got, err := users.Get(ctx, "carla.p")
		require.NoError(t, err)
		assert.Equal(t, "operador", got.Get("rol"))

		_, err = users.Delete(ctx, "carla.p")
		require.NoError(t, err)
		_, lookupErr := srv.Store().User("carla.p")
		assert.NotNil(t, lookupErr)
	})

	t.Run("Should report the self edit flag", func(t *testing.T) {
		client, _ := startBackend(t)

		out, err := client.Users().Update(testContext(t), "admin", map[string]any{"nuevo_usuario": "root"})

		require.NoError(t, err)
		assert.True(t, out.EditedSelf)
	})

	t.Run("Should carry the server message on failures", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)

		_, dupErr := client.Users().Create(ctx, map[string]any{"usuario": "lucia", "password": "1234"})
		_, selfErr := client.Users().Delete(ctx, "admin")
		_, badErr := client.Users().Create(ctx, map[string]any{"usuario": "zz"})

		var e *apperr.Error
		require.ErrorAs(t, dupErr, &e)
		assert.Equal(t, apperr.KindConflict, e.Kind)
		assert.Equal(t, "El usuario ya existe", e.ServerMessage)
		assert.ErrorIs(t, selfErr, apperr.ErrForbidden)
		require.ErrorAs(t, badErr, &e)
		assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
		assert.Contains(t, e.ServerMessage, "failed on")
	})

	t.Run("Should escape keys in paths", func(t *testing.T) {
		client, _ := startBackend(t)

		_, err := client.Users().Get(testContext(t), "no/such user")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestBranchesResource(t *testing.T) {
	t.Run("Should search locally and resolve Get from the list", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)

		found, err := client.Branches().Search(ctx, "PLATA")
		require.NoError(t, err)
		got, err := client.Branches().Get(ctx, "003")
		require.NoError(t, err)
		_, missErr := client.Branches().Get(ctx, "999")

		require.Len(t, found, 1)
		assert.Equal(t, "006", found[0].Key)
		assert.Equal(t, "Belgrano", got.Get("nombre"))
		assert.ErrorIs(t, missErr, apperr.ErrNotFound)
	})

	t.Run("Should refuse operations without a route", func(t *testing.T) {
		client, _ := startBackend(t)

		_, err := client.SMSDispatch().List(testContext(t))

		assert.ErrorIs(t, err, apperr.ErrUnexpected)
	})
}

func TestResponseDecoding(t *testing.T) {
	t.Run("Should treat a non JSON success body as an empty object", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>ok</html>"))
		}))
		t.Cleanup(ts.Close)
		client := newTestClient(t, ts.URL, "")

		out, err := client.Branches().Delete(testContext(t), "001")

		require.NoError(t, err)
		assert.True(t, out.OK)
		assert.Empty(t, out.Message)
	})

	t.Run("Should sniff JSON when the content type is missing", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte(`{"data":[{"codigo":"001","nombre":"Centro"}]}`))
		}))
		t.Cleanup(ts.Close)
		client := newTestClient(t, ts.URL, "")

		items, err := client.Branches().List(testContext(t))

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Centro", items[0].Get("nombre"))
	})

	t.Run("Should honor an explicit ok false", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":false,"mensaje":"No se pudo"}`))
		}))
		t.Cleanup(ts.Close)
		client := newTestClient(t, ts.URL, "")

		out, err := client.Branches().Delete(testContext(t), "001")

		require.NoError(t, err)
		assert.False(t, out.OK)
		assert.Equal(t, "No se pudo", out.Message)
	})

	t.Run("Should pick the first message field present", func(t *testing.T) {
		assert.Equal(t, "a", serverMessage([]byte(`{"detail":"a","mensaje":"b"}`)))
		assert.Equal(t, "campo", serverMessage([]byte(`{"detail":[{"msg":"campo"}]}`)))
		assert.Equal(t, "c", serverMessage([]byte(`{"error":"c"}`)))
		assert.Empty(t, serverMessage([]byte(`not json`)))
	})

	t.Run("Should map 401 to an auth error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No autenticado"}`))
		}))
		t.Cleanup(ts.Close)
		client := newTestClient(t, ts.URL, "")

		_, err := client.Users().List(testContext(t))

		assert.True(t, apperr.IsAuth(err))
	})
}

func TestTransportErrors(t *testing.T) {
	t.Run("Should report a network error when the backend is down", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()
		client := newTestClient(t, url, "")

		_, err := client.Users().List(testContext(t))

		assert.ErrorIs(t, err, apperr.ErrNetwork)
	})

	t.Run("Should flag deadline failures as timeouts", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(ts.Close)
		t.Cleanup(func() { close(release) })
		client := newTestClient(t, ts.URL, "")
		ctx, cancel := context.WithTimeout(testContext(t), 50*time.Millisecond)
		defer cancel()

		_, err := client.Users().List(ctx)

		var e *apperr.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, apperr.KindNetwork, e.Kind)
		assert.True(t, e.Timeout)
	})
}

func TestSessionIdentity(t *testing.T) {
	t.Run("Should read the current user and follow identity changes", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)

		first, err := client.CurrentUser(ctx)
		require.NoError(t, err)
		client.SetSessionUser("lucia")
		second, err := client.CurrentUser(ctx)
		require.NoError(t, err)
		client.SetSessionUser("")
		_, anonErr := client.CurrentUser(ctx)

		assert.Equal(t, "admin", first.Usuario)
		assert.Equal(t, "admin", first.Rol)
		assert.Equal(t, "lucia", second.Usuario)
		assert.True(t, apperr.IsAuth(anonErr))
	})
}
