package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/pkg/logger"
)

func TestQueue(t *testing.T) {
	t.Run("Should deliver notifications in order to subscribers", func(t *testing.T) {
		q := NewQueue(8)
		var mu sync.Mutex
		var got []Notification
		q.Subscribe(func(n Notification) {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		})

		q.Notify(t.Context(), "Usuario creado exitosamente", Success)
		q.Notify(t.Context(), "Error del servidor", Error)
		q.Close()

		require.Len(t, got, 2)
		assert.Equal(t, "Usuario creado exitosamente", got[0].Message)
		assert.Equal(t, Success, got[0].Severity)
		assert.Equal(t, Error, got[1].Severity)
		assert.NotEmpty(t, got[0].ID)
		assert.NotEqual(t, got[0].ID, got[1].ID)
	})

	t.Run("Should not block when the subscriber is stuck", func(t *testing.T) {
		q := NewQueue(2)
		release := make(chan struct{})
		q.Subscribe(func(Notification) { <-release })

		done := make(chan struct{})
		go func() {
			for range 10 {
				q.Notify(t.Context(), "spam", Info)
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Notify blocked on a stuck subscriber")
		}
		close(release)
		q.Close()
		assert.Positive(t, q.Dropped())
	})

	t.Run("Should stop delivering after unsubscribe and ignore notifications after close", func(t *testing.T) {
		q := NewQueue(4)
		var count int
		var mu sync.Mutex
		unsubscribe := q.Subscribe(func(Notification) {
			mu.Lock()
			count++
			mu.Unlock()
		})
		unsubscribe()

		q.Notify(t.Context(), "hidden", Info)
		q.Close()
		q.Notify(t.Context(), "late", Info)
		q.Close()

		assert.Zero(t, count)
	})
}

func TestRecorder(t *testing.T) {
	t.Run("Should keep notifications verbatim", func(t *testing.T) {
		var r Recorder

		r.Notify(t.Context(), "  texto exacto  ", Warning)

		last, ok := r.Last()
		require.True(t, ok)
		assert.Equal(t, "  texto exacto  ", last.Message)
		assert.Equal(t, 1, r.Len())
		assert.Len(t, r.All(), 1)
	})
}

func TestLogAndMulti(t *testing.T) {
	t.Run("Should write to the context logger and fan out", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logger.ContextWithLogger(t.Context(), logger.NewLogger(&logger.Config{
			Level:  logger.InfoLevel,
			Output: &buf,
		}))
		var r Recorder

		Multi{Log{}, &r, nil}.Notify(ctx, "Sucursal eliminada", Success)

		assert.Contains(t, buf.String(), "Sucursal eliminada")
		assert.Equal(t, 1, r.Len())
	})

	t.Run("Should accept anything on Discard", func(t *testing.T) {
		Discard.Notify(t.Context(), "ignored", Error)
	})
}
