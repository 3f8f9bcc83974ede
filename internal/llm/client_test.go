package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/logger"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func newTestClient(t *testing.T, cfg config.LLMConfig) Client {
	t.Helper()
	client, err := NewClient(cfg, logger.NewNop())
	require.NoError(t, err)
	return client
}

func TestResolveTransport(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{name: "default_provider", cfg: config.LLMConfig{}, want: TransportOllama},
		{name: "ollama_provider", cfg: config.LLMConfig{Provider: "ollama"}, want: TransportOllama},
		{name: "explicit_transport_wins", cfg: config.LLMConfig{Provider: "allam", Transport: "ollama", APIKey: "k"}, want: TransportOllama},
		{name: "api_key_selects_remote", cfg: config.LLMConfig{Provider: "allam", APIKey: "k"}, want: TransportAllam},
		{name: "allam_world_base_url", cfg: config.LLMConfig{Provider: "allam", BaseURL: "https://api.allam.world/"}, want: TransportAllam},
		{name: "allam_ai_base_url", cfg: config.LLMConfig{Provider: "allam", BaseURL: "https://chat.allam.ai"}, want: TransportAllam},
		{name: "allam_without_credentials_degrades", cfg: config.LLMConfig{Provider: "allam", BaseURL: "http://localhost:11434"}, want: TransportOllama},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveTransport(tc.cfg))
		})
	}
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "claude"}, logger.NewNop())
	require.Error(t, err)
}

func TestOllamaCallUsesGenerateEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"response":"أهلاً","done":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{
		Provider:    "ollama",
		BaseURL:     srv.URL,
		Model:       "allam-7b",
		Temperature: floatPtr(0.6),
	})
	reply, err := client.Call(context.Background(), Request{
		Prompt:          "سؤال",
		MaxOutputTokens: intPtr(256),
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/generate", gotPath)
	assert.Equal(t, "allam-7b", gotBody["model"])
	assert.Equal(t, "سؤال", gotBody["prompt"])
	assert.Equal(t, false, gotBody["stream"])
	options, ok := gotBody["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.6, options["temperature"])
	assert.Equal(t, float64(256), options["num_predict"])
	assert.Equal(t, "أهلاً", reply.Text)
}

func TestOllamaStreamUsesChatEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			`{"message":{"content":"مر"},"done":false}`,
			`not json at all`,
			`{"message":{"content":"حبا"},"done":false}`,
			`{"done":true}`,
		} {
			io.WriteString(w, frame+"\n")
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{Provider: "ollama", BaseURL: srv.URL, Model: "allam-7b"})

	var tokens []string
	doneCount := 0
	err := client.Stream(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "مرحبا"}},
	}, func(ev Event) {
		if ev.Done {
			doneCount++
			return
		}
		tokens = append(tokens, ev.Token)
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, []string{"مر", "حبا"}, tokens)
	assert.Equal(t, 1, doneCount)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{Provider: "ollama", BaseURL: srv.URL})
	_, err := client.Call(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusInternalServerError, llmErr.Status)
	assert.Equal(t, "ollama", llmErr.Provider)
	assert.Equal(t, "model not loaded", llmErr.Detail)
	assert.Equal(t, "OLLAMA request failed (500): model not loaded", err.Error())
}

func TestAllamStream(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		flusher := w.(http.Flusher)
		for _, frame := range []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`data: [DONE]`,
		} {
			io.WriteString(w, frame+"\n\n")
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{
		Provider: "allam",
		BaseURL:  srv.URL,
		APIKey:   "secret",
		Model:    "allam-1",
		TopP:     floatPtr(0.9),
	})

	var tokens []string
	doneCount := 0
	finishReason := ""
	err := client.Stream(context.Background(), Request{
		System: "you are a guide",
		Prompt: "hello",
	}, func(ev Event) {
		if ev.Done {
			doneCount++
			finishReason = ev.FinishReason
			return
		}
		tokens = append(tokens, ev.Token)
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "allam-1", gotBody["model"])
	assert.Equal(t, 0.9, gotBody["top_p"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	assert.Equal(t, []string{"Hel", "lo"}, tokens)
	assert.Equal(t, 1, doneCount, "finish_reason and [DONE] must not both emit done")
	assert.Equal(t, "stop", finishReason)
}

func TestAllamStreamPaddedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		io.WriteString(w, "data:  [DONE] \n\n")
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{Provider: "allam", APIKey: "k", BaseURL: srv.URL})
	var tokens []string
	doneCount := 0
	err := client.Stream(context.Background(), Request{Prompt: "hi"}, func(ev Event) {
		if ev.Done {
			doneCount++
			return
		}
		tokens = append(tokens, ev.Token)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, tokens)
	assert.Equal(t, 1, doneCount, "a sentinel with stray padding must still terminate the stream")
}

func TestAllamStreamSynthesizesDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{Provider: "allam", APIKey: "k", BaseURL: srv.URL})
	doneCount := 0
	err := client.Stream(context.Background(), Request{Prompt: "hi"}, func(ev Event) {
		if ev.Done {
			doneCount++
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doneCount)
}

func TestAllamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, config.LLMConfig{Provider: "allam", APIKey: "bad", BaseURL: srv.URL})
	err := client.Stream(context.Background(), Request{Prompt: "hi"}, func(Event) {})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusUnauthorized, llmErr.Status)
	assert.Equal(t, "allam", llmErr.Provider)
	assert.Equal(t, "invalid api key", llmErr.Detail)
}

func TestExtractErrorDetail(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "json_string", raw: `"boom"`, want: "boom"},
		{name: "error_string_field", raw: `{"error":"boom"}`, want: "boom"},
		{name: "nested_error_message", raw: `{"error":{"message":"boom"}}`, want: "boom"},
		{name: "message_field", raw: `{"message":"boom"}`, want: "boom"},
		{name: "raw_text", raw: "  plain failure  ", want: "plain failure"},
		{name: "empty", raw: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractErrorDetail([]byte(tc.raw)))
		})
	}
}
