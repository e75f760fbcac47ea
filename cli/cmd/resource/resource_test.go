package resource_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/cli/cmd/resource"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/engine/mockapi"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

// newCLIContext starts a seeded mock backend and returns a context whose
// configuration points JSON-mode commands at it.
func newCLIContext(t *testing.T) (context.Context, *mockapi.Server) {
	t.Helper()
	return newCLIContextWith(t, nil)
}

// newCLIContextWith is newCLIContext with the backend handler passed
// through wrap, so tests can make single endpoints misbehave.
func newCLIContextWith(t *testing.T, wrap func(http.Handler) http.Handler) (context.Context, *mockapi.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := logger.ContextWithLogger(t.Context(), logger.NewForTests())
	manager := config.NewManager(config.NewService())
	_, err := manager.Load(ctx)
	require.NoError(t, err)
	cfg := manager.Get()

	mockCfg := cfg.Mock
	mockCfg.Seed = true
	mockCfg.SessionUser = ""
	srv, err := mockapi.New(ctx, mockCfg)
	require.NoError(t, err)
	handler := srv.Handler()
	if wrap != nil {
		handler = wrap(handler)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg.API.BaseURL = ts.URL
	cfg.API.Timeout = 2 * time.Second
	cfg.Session.User = "admin"
	cfg.CLI.Format = "json"
	cfg.List.Debounce = 0
	return config.ContextWithManager(ctx, manager), srv
}

func run(ctx context.Context, root *cobra.Command, args ...string) (*bytes.Buffer, error) {
	var out bytes.Buffer
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return &out, root.ExecuteContext(ctx)
}

func findUser(srv *mockapi.Server, name string) (mockapi.User, bool) {
	u, err := srv.Store().User(name)
	return u, err == nil
}

// failSearch answers every /usuarios request that carries a search query
// with fail and passes the rest through.
func failSearch(fail http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/usuarios" && r.URL.Query().Has("search") {
				fail(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeList(t *testing.T, out *bytes.Buffer) resource.ListOutput {
	t.Helper()
	var doc resource.ListOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	return doc
}

func TestUsersList(t *testing.T) {
	t.Run("Should print the first page with metadata", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		out, err := run(ctx, resource.UsersCmd(), "list")
		require.NoError(t, err)

		doc := decodeList(t, out)
		assert.Len(t, doc.Data, 5)
		assert.Equal(t, 1, doc.Meta.Page)
		assert.Equal(t, 2, doc.Meta.TotalPages)
		assert.Equal(t, 7, doc.Meta.Total)
		assert.Equal(t, "Mostrando usuarios 1–5 de 7", doc.Meta.Info)
		for _, row := range doc.Data {
			assert.NotContains(t, row, "password")
		}
	})

	t.Run("Should print a later page", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		out, err := run(ctx, resource.UsersCmd(), "list", "--page", "2")
		require.NoError(t, err)

		doc := decodeList(t, out)
		assert.Len(t, doc.Data, 2)
		assert.Equal(t, 2, doc.Meta.Page)
	})

	t.Run("Should reject a page out of range", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "list", "--page", "9")

		require.Error(t, err)
		assert.Equal(t, helpers.ExitUsage, helpers.ExitCode(err))
	})

	t.Run("Should filter on the server", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		out, err := run(ctx, resource.UsersCmd(), "list", "--search", "luc")
		require.NoError(t, err)

		doc := decodeList(t, out)
		require.Len(t, doc.Data, 1)
		assert.Equal(t, "lucia", doc.Data[0]["usuario"])
		assert.Equal(t, "filtering", string(doc.Meta.Mode))
		assert.Equal(t, "luc", doc.Meta.Filter)
	})

	t.Run("Should fail with an auth exit code when the search is unauthorized", func(t *testing.T) {
		ctx, _ := newCLIContextWith(t, failSearch(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No autenticado"}`))
		}))

		out, err := run(ctx, resource.UsersCmd(), "list", "--search", "adm")

		require.Error(t, err)
		assert.Equal(t, helpers.ExitAuth, helpers.ExitCode(err))
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "AUTH_ERROR", cliErr.Code)
		assert.Empty(t, out.String())
	})

	t.Run("Should report a dropped connection during search as a network error", func(t *testing.T) {
		ctx, _ := newCLIContextWith(t, failSearch(func(w http.ResponseWriter, _ *http.Request) {
			hj, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "hijack unsupported", http.StatusTeapot)
				return
			}
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}))

		out, err := run(ctx, resource.UsersCmd(), "list", "--search", "adm")

		require.Error(t, err)
		assert.Equal(t, helpers.ExitError, helpers.ExitCode(err))
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "NETWORK_ERROR", cliErr.Code)
		assert.Empty(t, out.String())
	})

	t.Run("Should report a server failure during search", func(t *testing.T) {
		ctx, _ := newCLIContextWith(t, failSearch(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		_, err := run(ctx, resource.UsersCmd(), "list", "--search", "adm")

		require.Error(t, err)
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "SERVER_ERROR", cliErr.Code)
	})
}

func TestUsersMutations(t *testing.T) {
	t.Run("Should create a user from flags", func(t *testing.T) {
		ctx, srv := newCLIContext(t)

		out, err := run(ctx, resource.UsersCmd(), "create",
			"--usuario", "nuevo", "--password", "clave123", "--rol", "operador")
		require.NoError(t, err)

		var doc resource.MutationOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.Equal(t, "nuevo", doc.Data.Key)
		assert.Equal(t, "Usuario creado correctamente", doc.Data.Message)
		_, found := findUser(srv, "nuevo")
		assert.True(t, found)
	})

	t.Run("Should report missing required fields as a failure", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "create", "--usuario", "nuevo")

		require.Error(t, err)
		assert.True(t, helpers.Reported(err))
		assert.Equal(t, helpers.ExitError, helpers.ExitCode(err))
	})

	t.Run("Should reject a rename onto an existing user", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "update", "martin", "--usuario", "Lucia")

		require.Error(t, err)
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "CONFLICT", cliErr.Code)
	})

	t.Run("Should update a user", func(t *testing.T) {
		ctx, srv := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "update", "martin", "--email", "martin@limitedeportes.com")
		require.NoError(t, err)

		u, found := findUser(srv, "martin")
		require.True(t, found)
		assert.Equal(t, "martin@limitedeportes.com", u.Email)
	})

	t.Run("Should confirm a rename of the operator's own account", func(t *testing.T) {
		ctx, srv := newCLIContext(t)

		out, err := run(ctx, resource.UsersCmd(), "update", "admin", "--usuario", "jefe")
		require.NoError(t, err)

		var doc resource.MutationOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.True(t, doc.Data.EditedSelf)
		assert.Equal(t, "jefe", doc.Data.NewIdentity)
		assert.Equal(t, "Usuario actualizado. Tu nombre de sesión cambió correctamente", doc.Data.Message)
		_, found := findUser(srv, "jefe")
		assert.True(t, found)
	})

	t.Run("Should require --force to delete in JSON mode", func(t *testing.T) {
		ctx, srv := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "delete", "martin")
		require.Error(t, err)
		assert.Equal(t, helpers.ExitUsage, helpers.ExitCode(err))
		_, found := findUser(srv, "martin")
		assert.True(t, found)

		out, err := run(ctx, resource.UsersCmd(), "delete", "martin", "--force")
		require.NoError(t, err)
		var doc resource.DeleteOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.True(t, doc.Data.Deleted)
		_, found = findUser(srv, "martin")
		assert.False(t, found)
	})

	t.Run("Should refuse to delete the operator's own account", func(t *testing.T) {
		ctx, srv := newCLIContext(t)

		_, err := run(ctx, resource.UsersCmd(), "delete", "admin", "--force")

		require.Error(t, err)
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "FORBIDDEN", cliErr.Code)
		_, found := findUser(srv, "admin")
		assert.True(t, found)
	})
}

func TestBranches(t *testing.T) {
	t.Run("Should list and create branches", func(t *testing.T) {
		ctx, _ := newCLIContext(t)

		_, err := run(ctx, resource.BranchesCmd(), "create", "--codigo", "007", "--nombre", "Lanús")
		require.NoError(t, err)

		out, err := run(ctx, resource.BranchesCmd(), "list", "--search", "Lan")
		require.NoError(t, err)
		doc := decodeList(t, out)
		require.Len(t, doc.Data, 1)
		assert.Equal(t, "007", doc.Data[0]["codigo"])
	})
}
