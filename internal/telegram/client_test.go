package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dvizh-wroclaw/dvizh-bot/internal/pkg/errors"
)

// newTestClient starts a fake Bot API server and returns a Client wired to it.
// The handler receives the method name and the parsed form values.
func newTestClient(t *testing.T, handler func(method string, r *http.Request) string) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		// URL shape: /bot<token>/<method>
		method := r.URL.Path[len("/bottest-token/"):]
		if method == "getMe" {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"dvizh","username":"dvizh_wroclaw_bot"}}`)
			return
		}

		fmt.Fprint(w, handler(method, r))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", server.URL+"/bot%s/%s")
	require.NoError(t, err)

	return client
}

func TestClient_GetUpdates(t *testing.T) {
	t.Run("returns raw updates with their ids", func(t *testing.T) {
		client := newTestClient(t, func(method string, r *http.Request) string {
			require.Equal(t, "getUpdates", method)
			assert.Equal(t, "41", r.Form.Get("offset"))
			assert.Equal(t, "30", r.Form.Get("timeout"))

			return `{"ok":true,"result":[
				{"update_id":41,"message":{"text":"hi"}},
				{"update_id":42,"some_future_field":{"x":1}}
			]}`
		})

		updates, err := client.GetUpdates(context.Background(), 41, 30)

		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, int64(41), updates[0].UpdateID)
		assert.Equal(t, int64(42), updates[1].UpdateID)
		assert.Equal(t, "hi", string(mustJSONField(t, updates[0].Raw, "message", "text")))
	})

	t.Run("omits the offset parameter when zero", func(t *testing.T) {
		client := newTestClient(t, func(_ string, r *http.Request) string {
			assert.False(t, r.Form.Has("offset"))
			return `{"ok":true,"result":[]}`
		})

		updates, err := client.GetUpdates(context.Background(), 0, 30)

		require.NoError(t, err)
		assert.Empty(t, updates)
	})

	t.Run("update without update_id fails the whole batch", func(t *testing.T) {
		client := newTestClient(t, func(_ string, _ *http.Request) string {
			return `{"ok":true,"result":[{"message":{"text":"hi"}}]}`
		})

		_, err := client.GetUpdates(context.Background(), 0, 30)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})

	t.Run("cancelled context short-circuits before the request", func(t *testing.T) {
		client := newTestClient(t, func(_ string, _ *http.Request) string {
			t.Error("no request expected after cancellation")
			return `{"ok":true,"result":[]}`
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.GetUpdates(ctx, 0, 30)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Timeout))
	})
}

func TestClient_Call(t *testing.T) {
	t.Run("returns the raw result field", func(t *testing.T) {
		client := newTestClient(t, func(method string, r *http.Request) string {
			require.Equal(t, "sendMessage", method)
			assert.Equal(t, "100", r.Form.Get("chat_id"))
			assert.Equal(t, "Hello!", r.Form.Get("text"))

			return `{"ok":true,"result":{"message_id":7}}`
		})

		result, err := client.Call(context.Background(), "sendMessage", map[string]string{
			"chat_id": "100",
			"text":    "Hello!",
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"message_id":7}`, string(result))
	})

	t.Run("API failure is wrapped as ExecutionFailed", func(t *testing.T) {
		client := newTestClient(t, func(_ string, _ *http.Request) string {
			return `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
		})

		_, err := client.Call(context.Background(), "sendMessage", map[string]string{"chat_id": "0"})

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
		assert.Contains(t, err.Error(), "chat not found")
	})
}

func TestClient_BotUsername(t *testing.T) {
	client := newTestClient(t, func(_ string, _ *http.Request) string {
		return `{"ok":true,"result":null}`
	})

	assert.Equal(t, "dvizh_wroclaw_bot", client.BotUsername())
}

func mustJSONField(t *testing.T, raw json.RawMessage, path ...string) string {
	t.Helper()

	current := raw
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(current, &obj))
		current = obj[key]
	}

	var s string
	require.NoError(t, json.Unmarshal(current, &s))
	return s
}
