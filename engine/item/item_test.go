package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameKey(t *testing.T) {
	t.Run("Should compare identities ignoring case", func(t *testing.T) {
		assert.True(t, SameKey("Admin", "aDMIN"))
		assert.True(t, SameKey("Straße", "STRASSE"))
		assert.False(t, SameKey("ana", "anna"))
	})

	t.Run("Should find items by folded key", func(t *testing.T) {
		items := []Item{{Key: "juan"}, {Key: "Maria"}}

		found, ok := Find(items, "MARIA")

		require.True(t, ok)
		assert.Equal(t, "Maria", found.Key)
		_, ok = Find(items, "pedro")
		assert.False(t, ok)
	})
}

func TestItem_Matches(t *testing.T) {
	it := Item{Key: "juan", Fields: map[string]string{"rol": "Operador", "email": "juan@example.com"}}

	t.Run("Should match key and listed fields", func(t *testing.T) {
		assert.True(t, it.Matches("JU", nil))
		assert.True(t, it.Matches("opera", []string{"rol"}))
		assert.False(t, it.Matches("opera", []string{"email"}))
	})

	t.Run("Should match everything with an empty needle", func(t *testing.T) {
		assert.True(t, it.Matches("  ", nil))
	})
}

func TestCloneAll(t *testing.T) {
	t.Run("Should not share field maps", func(t *testing.T) {
		src := []Item{{Key: "a", Fields: map[string]string{"rol": "admin"}}}

		dst := CloneAll(src)
		dst[0].Fields["rol"] = "operador"

		assert.Equal(t, "admin", src[0].Get("rol"))
		assert.Nil(t, CloneAll(nil))
	})
}

func TestSchema_Decode(t *testing.T) {
	t.Run("Should stringify scalar fields and pick the key", func(t *testing.T) {
		it, err := Users.Decode(map[string]any{"id": float64(7), "usuario": "ana", "rol": "admin", "extra": []any{1}})

		require.NoError(t, err)
		assert.Equal(t, "ana", it.Key)
		assert.Equal(t, "7", it.Get("id"))
		assert.Equal(t, "", it.Get("extra"))
	})

	t.Run("Should fall back to the secondary key", func(t *testing.T) {
		it, err := SMSLog.Decode(map[string]any{"codigo": "4821", "dni": "30111222"})

		require.NoError(t, err)
		assert.Equal(t, "4821", it.Key)
	})

	t.Run("Should reject records without identity", func(t *testing.T) {
		_, err := Branches.DecodeAll([]map[string]any{{"codigo": "001"}, {"nombre": "Centro"}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "record 1")
	})
}

func TestSchema_Body(t *testing.T) {
	t.Run("Should build a user create payload with defaults", func(t *testing.T) {
		body := Users.Body(map[string]string{"usuario": " ana ", "password": "pw12", "rol": "admin"}, false)

		assert.Equal(t, map[string]any{"usuario": "ana", "password": "pw12", "rol": "admin"}, body)
	})

	t.Run("Should rename the key and drop blank password on update", func(t *testing.T) {
		body := Users.Body(map[string]string{"usuario": "ana2", "password": "", "rol": "operador"}, true)

		assert.Equal(t, map[string]any{"nuevo_usuario": "ana2", "rol": "operador"}, body)
	})

	t.Run("Should never send immutable branch codes on update", func(t *testing.T) {
		body := Branches.Body(map[string]string{"codigo": "001", "nombre": "Centro"}, true)

		assert.Equal(t, map[string]any{"nombre": "Centro"}, body)
	})

	t.Run("Should prefill values from an item with secrets blanked", func(t *testing.T) {
		values := Users.Values(Item{Key: "ana", Fields: map[string]string{"usuario": "ana", "rol": "admin", "password": "x"}})

		assert.Equal(t, "ana", values["usuario"])
		assert.Equal(t, "", values["password"])
		assert.Equal(t, "admin", values["rol"])
	})
}

func TestSchema_Columns(t *testing.T) {
	t.Run("Should hide secret and hidden fields", func(t *testing.T) {
		names := func(fs []Field) []string {
			out := make([]string, len(fs))
			for i, f := range fs {
				out[i] = f.Name
			}
			return out
		}
		assert.Equal(t, []string{"usuario", "rol", "email"}, names(Users.Columns()))
		assert.NotContains(t, names(SMSLog.Columns()), "id")
	})
}
