package api

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/engine/apperr"
)

func TestSMSLogFilter_Query(t *testing.T) {
	t.Run("Should leave out zero values", func(t *testing.T) {
		assert.Empty(t, SMSLogFilter{}.Query())
	})

	t.Run("Should render dates as calendar days", func(t *testing.T) {
		from := time.Date(2024, 3, 1, 22, 10, 0, 0, time.UTC)
		q := SMSLogFilter{UserID: 4, From: from, To: from.AddDate(0, 0, 6), Estado: " enviado "}.Query()

		assert.Equal(t, "4", q.Get("usuario_id"))
		assert.Equal(t, "2024-03-01", q.Get("fecha_inicio"))
		assert.Equal(t, "2024-03-07", q.Get("fecha_fin"))
		assert.Equal(t, "enviado", q.Get("estado"))
	})
}

func TestSMSLog(t *testing.T) {
	t.Run("Should narrow the log by user and search it locally", func(t *testing.T) {
		client, _ := startBackend(t)
		ctx := testContext(t)

		id, err := client.ResolveUserID(ctx, "OPERADOR1")
		require.NoError(t, err)
		log := client.SMSLog(SMSLogFilter{UserID: id})
		rows, err := log.List(ctx)
		require.NoError(t, err)
		found, err := log.Search(ctx, "la plata")
		require.NoError(t, err)

		assert.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, "operador1", r.Get("usuario_nombre"))
		}
		require.Len(t, found, 1)
		assert.Equal(t, "7710", found[0].Get("codigo"))
	})

	t.Run("Should report unknown user names", func(t *testing.T) {
		client, _ := startBackend(t)

		_, err := client.ResolveUserID(testContext(t), "nadie")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Should dispatch a code and log it", func(t *testing.T) {
		client, srv := startBackend(t)
		ctx := testContext(t)

		out, err := client.SMSDispatch().Create(ctx, map[string]any{
			"personId":         "30111222",
			"phoneNumber":      "1155550001",
			"merchantCode":     "004",
			"verificationCode": "1234",
		})
		require.NoError(t, err)
		rows, err := client.SMSLog(SMSLogFilter{}).Search(ctx, "caballito")
		require.NoError(t, err)

		assert.Equal(t, "SMS enviado correctamente", out.Message)
		assert.Equal(t, "30111222", out.Key)
		assert.Equal(t, "98.50", srv.Store().Balance().StringFixed(2))
		require.Len(t, rows, 1)
		assert.Equal(t, "1234", rows[0].Get("codigo"))
	})
}

func TestBranchDirectory(t *testing.T) {
	t.Run("Should reload once on a miss and serve hits from cache", func(t *testing.T) {
		var lists atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			lists.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"codigo":"001","nombre":"Casa Central"},{"codigo":"002","nombre":"Palermo"}]`))
		}))
		t.Cleanup(ts.Close)
		dir, err := NewBranchDirectory(newTestClient(t, ts.URL, "").Branches(), 0)
		require.NoError(t, err)
		ctx := testContext(t)

		first, err := dir.Name(ctx, "002")
		require.NoError(t, err)
		second, err := dir.Name(ctx, " 002 ")
		require.NoError(t, err)
		_, missErr := dir.Name(ctx, "009")

		assert.Equal(t, "Palermo", first)
		assert.Equal(t, first, second)
		assert.ErrorIs(t, missErr, apperr.ErrNotFound)
		assert.Equal(t, int32(2), lists.Load())
		assert.Equal(t, 2, dir.Len())
	})

	t.Run("Should evict beyond its size and refill after Invalidate", func(t *testing.T) {
		client, _ := startBackend(t)
		dir, err := NewBranchDirectory(client.Branches(), 3)
		require.NoError(t, err)
		ctx := testContext(t)

		require.NoError(t, dir.Warm(ctx))
		assert.Equal(t, 3, dir.Len())
		dir.Invalidate()
		assert.Equal(t, 0, dir.Len())
		name, err := dir.Name(ctx, "006")
		require.NoError(t, err)
		assert.Equal(t, "La Plata", name)
	})
}
