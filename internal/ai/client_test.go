package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultChatModel, c.chatModel)
	assert.Equal(t, DefaultTranscriptionModel, c.transcriptionModel)
	assert.InDelta(t, DefaultTemperature, c.temperature, 1e-9)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	temp := 0.5
	c, err = NewClient(Config{APIKey: "k", ChatModel: "gpt-4o", Temperature: &temp, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.chatModel)
	assert.InDelta(t, 0.5, c.temperature, 1e-9)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model": "gpt-4o-mini", "choices": [{"message": {"role": "assistant", "content": "{}"}}]}`)
	}))
	t.Cleanup(server.Close)

	zero := 0.0
	c, err := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/", Temperature: &zero})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), ChatRequest{Messages: []Message{UserMessage("hola")}})
	require.NoError(t, err)
	require.Contains(t, got, "temperature")
	assert.InDelta(t, 0, got["temperature"], 1e-9)
}

func TestComplete(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"amount\": 10}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`)
	})

	resp, err := c.Complete(context.Background(), ChatRequest{
		Messages: []Message{SystemMessage("sys"), UserMessage("hola")},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"amount": 10}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 30}, resp.Usage)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-9)
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "sys"}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "hola"}, messages[1])
}

func TestCompleteWithoutJSONModeOmitsResponseFormat(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices": []}`)
	})

	resp, err := c.Complete(context.Background(), ChatRequest{Messages: []Message{UserMessage("x")}})
	require.NoError(t, err)
	assert.Empty(t, resp.Content, "no choices is empty content")
	assert.Equal(t, DefaultChatModel, resp.Model)
	assert.NotContains(t, got, "response_format")
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantAPI: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`, wantAPI: true},
		{name: "invalid json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Complete(context.Background(), ChatRequest{Messages: []Message{UserMessage("x")}})
			require.Error(t, err)

			var apiErr *APIError
			assert.Equal(t, tt.wantAPI, errors.As(err, &apiErr))
			if tt.wantAPI {
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Contains(t, apiErr.Error(), tt.body)
			}
		})
	}
}

func TestCompleteHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, ChatRequest{Messages: []Message{UserMessage("x")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "es", r.FormValue("language"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "audio.ogg", hdr.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("OggS-fake"), data)

		_, _ = io.WriteString(w, `{"text": "  cincuenta quetzales en gasolina ", "language": "spanish", "duration": 4.2}`)
	})

	tr, err := c.Transcribe(context.Background(), TranscriptionRequest{
		Audio:    []byte("OggS-fake"),
		MimeType: "audio/ogg; codecs=opus",
		Language: "es",
	})
	require.NoError(t, err)
	assert.Equal(t, "cincuenta quetzales en gasolina", tr.Text)
	assert.Equal(t, "whisper-1", tr.Model)
	assert.InDelta(t, 4.2, tr.DurationSeconds, 1e-9)
}

func TestTranscribeAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid file format."}}`)
	})

	_, err := c.Transcribe(context.Background(), TranscriptionRequest{Audio: []byte("x"), MimeType: "audio/webm"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"audio/webm":             ".webm",
		"audio/webm;codecs=opus": ".webm",
		"AUDIO/MPEG":             ".mp3",
		"audio/x-m4a":            ".m4a",
		"audio/wav":              ".wav",
		"":                       ".webm",
		"application/unknown":    ".webm",
	}
	for in, want := range tests {
		assert.Equal(t, want, extensionFor(in), in)
	}
}
