package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"very short", "abc", "***"},
		{"short token", "abcdefgh", "abcd***"},
		{"long token", "123456:ABCDEF-ghijkl", "1234***ijkl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskSensitiveData(tt.input))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Run("name is required", func(t *testing.T) {
		opts := Options{}
		assert.Error(t, opts.Validate())
	})

	t.Run("dir may not be an existing file", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, writeEmptyFile(filePath))

		opts := Options{Name: "dvizh-bot", Dir: filePath}
		assert.Error(t, opts.Validate())
	})

	t.Run("negative max age rejected", func(t *testing.T) {
		opts := Options{Name: "dvizh-bot", MaxAge: -1}
		assert.Error(t, opts.Validate())
	})

	t.Run("valid options", func(t *testing.T) {
		opts := NewDevelopmentOptions("dvizh-bot")
		assert.NoError(t, opts.Validate())
	})
}

func TestWithComponentAndFields(t *testing.T) {
	entry := WithComponentAndFields("bot.poller", Fields{"offset": 42})

	assert.Equal(t, "bot.poller", entry.Data["component"])
	assert.Equal(t, 42, entry.Data["offset"])
}

func TestSetup_ConsoleOnly(t *testing.T) {
	closer, err := Setup(NewDevelopmentOptions("dvizh-bot"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())
}

func TestSetup_FileOutput(t *testing.T) {
	opts := NewProductionOptions("dvizh-bot")
	opts.Dir = t.TempDir()

	closer, err := Setup(opts)
	require.NoError(t, err)
	defer func() {
		closer.Close()
		// restore console output for the remaining tests
		_, consoleErr := Setup(NewDevelopmentOptions("dvizh-bot"))
		require.NoError(t, consoleErr)
	}()

	// lumberjack creates the file on first write
	WithComponent("test").Info("file output check")

	_, err = os.Stat(filepath.Join(opts.Dir, "dvizh-bot.log"))
	assert.NoError(t, err)
}

func writeEmptyFile(path string) error {
	return os.WriteFile(path, nil, 0644)
}
