package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/mutation"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/engine/session"
)

func TestUsersScreen(t *testing.T) {
	t.Run("Should keep the list in sync with mutations against the backend", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)
		rec := &notify.Recorder{}
		users := client.Users()
		list := listview.New(ctx, users,
			listview.WithNotifier(rec),
			listview.WithDebounce(0),
			listview.WithMessages(listview.MessagesFor(item.Users)),
		)
		t.Cleanup(list.Close)
		coord := mutation.New(item.Users, users,
			mutation.WithRefresher(list),
			mutation.WithNotifier(rec),
			mutation.WithSession(session.NewStore("admin")),
			mutation.WithConfirmer(mutation.Always),
		)

		_, err := list.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Mostrando usuarios 1–5 de 7", list.View().Info)

		res, err := coord.Submit(ctx, map[string]string{"usuario": "nora", "password": "1234", "rol": "operador"})
		require.NoError(t, err)
		assert.Equal(t, "Usuario creado correctamente", res.Message)
		assert.Len(t, list.Items(), 8)

		_, err = coord.Submit(ctx, map[string]string{"usuario": "NORA", "password": "1234", "rol": "operador"})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		_, err = coord.BeginEdit(ctx, "nora")
		require.NoError(t, err)
		_, err = coord.Submit(ctx, map[string]string{"usuario": "Lucia"})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		assert.ErrorIs(t, coord.Remove(ctx, "ADMIN"), apperr.ErrSelfDeletion)
		require.NoError(t, coord.Remove(ctx, "nora"))
		_, found := item.Find(list.Items(), "nora")
		assert.False(t, found)

		last, ok := rec.Last()
		require.True(t, ok)
		assert.Equal(t, notify.Success, last.Severity)
	})
}
