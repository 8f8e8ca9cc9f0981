package translation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

func writeTranslationFile(t *testing.T, dir, languageCode, contents string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, languageCode+".json"), []byte(contents), 0o600)
	require.NoError(t, err)
}

func TestFileStore_Load(t *testing.T) {
	t.Run("loads the full table for a language", func(t *testing.T) {
		dir := t.TempDir()
		writeTranslationFile(t, dir, "en", `{
			"hello": "Hello!",
			"8ball": ["Yes", "No", "Ask again later"]
		}`)

		table, err := NewFileStore(dir).Load("en")

		require.NoError(t, err)
		require.Len(t, table, 2)

		text, err := table["hello"].Text()
		require.NoError(t, err)
		assert.Equal(t, "Hello!", text)

		list, err := table["8ball"].List()
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("unknown language yields NotFound", func(t *testing.T) {
		_, err := NewFileStore(t.TempDir()).Load("de")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
	})

	t.Run("language code is validated before touching the filesystem", func(t *testing.T) {
		dir := t.TempDir()
		writeTranslationFile(t, dir, "en", `{}`)

		_, err := NewFileStore(dir).Load("../en")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("malformed JSON yields ParsingFailed", func(t *testing.T) {
		dir := t.TempDir()
		writeTranslationFile(t, dir, "pl", `{"hello": `)

		_, err := NewFileStore(dir).Load("pl")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})
}
