package translation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

func TestValue_Text(t *testing.T) {
	t.Run("text value returns its string", func(t *testing.T) {
		text, err := NewText("hello there").Text()

		require.NoError(t, err)
		assert.Equal(t, "hello there", text)
	})

	t.Run("list value rejects Text access", func(t *testing.T) {
		_, err := NewList([]string{"a", "b"}).Text()

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})
}

func TestValue_List(t *testing.T) {
	t.Run("list value returns its items", func(t *testing.T) {
		list, err := NewList([]string{"yes", "no", "maybe"}).List()

		require.NoError(t, err)
		assert.Equal(t, []string{"yes", "no", "maybe"}, list)
	})

	t.Run("text value rejects List access", func(t *testing.T) {
		_, err := NewText("hello").List()

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})
}

func TestValue_UnmarshalJSON(t *testing.T) {
	t.Run("string becomes a text value", func(t *testing.T) {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(`"Привет!"`), &v))

		text, err := v.Text()
		require.NoError(t, err)
		assert.Equal(t, "Привет!", text)
	})

	t.Run("array becomes a list value", func(t *testing.T) {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(`["one","two"]`), &v))

		list, err := v.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, list)
	})

	t.Run("other JSON shapes are rejected", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"nested":true}`), &v)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})
}
