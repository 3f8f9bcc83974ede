// Package llm normalizes the two upstream model-serving protocols (the local
// Ollama-style generate/chat API and the remote Allam OpenAI-style
// chat-completions API) behind one client contract.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/logger"
)

const (
	TransportOllama = "ollama"
	TransportAllam  = "allam"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized outbound request. Generation parameters are
// pointers so that unset values fall through to the transport defaults
// instead of overriding them with zero.
type Request struct {
	Model           string
	System          string
	Prompt          string
	Messages        []Message
	Temperature     *float64
	TopP            *float64
	MaxOutputTokens *int
	Stop            []string
	Images          []string
	Format          string
	KeepAlive       any
	Context         []int
}

type Reply struct {
	Text string
	Raw  json.RawMessage
}

type Event struct {
	Token        string
	Done         bool
	FinishReason string
}

// Error carries the upstream HTTP status plus a best-effort human-readable
// detail extracted from the response body.
type Error struct {
	Status   int
	Provider string
	Detail   string
}

func (e *Error) Error() string {
	label := strings.ToUpper(e.Provider)
	if label == "" {
		label = "LLM"
	}
	msg := fmt.Sprintf("%s request failed (%d)", label, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

type Client interface {
	Call(ctx context.Context, req Request) (*Reply, error)
	Stream(ctx context.Context, req Request, onEvent func(Event)) error
}

var allamDomainPattern = regexp.MustCompile(`(?i)allam\.(world|ai)`)

// ResolveTransport picks the concrete transport for the configured provider.
// The "allam" provider degrades to the local transport when no remote
// credentials are present: an explicit API key or an allam.* base URL selects
// the remote transport, anything else falls back to Ollama.
func ResolveTransport(cfg config.LLMConfig) string {
	provider := strings.ToLower(cfg.Provider)
	if provider != TransportAllam {
		return TransportOllama
	}
	transport := strings.ToLower(cfg.Transport)
	if transport == TransportAllam || transport == TransportOllama {
		return transport
	}
	if cfg.APIKey != "" {
		return TransportAllam
	}
	if allamDomainPattern.MatchString(normalizeBaseURL(cfg.BaseURL)) {
		return TransportAllam
	}
	return TransportOllama
}

func NewClient(cfg config.LLMConfig, log *logger.Logger) (Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = TransportOllama
	}
	if provider != TransportOllama && provider != TransportAllam {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 180 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	switch ResolveTransport(cfg) {
	case TransportAllam:
		return newAllamClient(cfg, httpClient, log), nil
	default:
		return newOllamaClient(cfg, httpClient, log), nil
	}
}

func normalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}

// extractErrorDetail tries to pull a human-readable message out of an error
// body: a JSON string, an "error" / "error.message" / "message" field, or
// failing all of that the raw trimmed text.
func extractErrorDetail(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		switch v := parsed.(type) {
		case string:
			return v
		case map[string]any:
			if s, ok := v["error"].(string); ok {
				return s
			}
			if m, ok := v["error"].(map[string]any); ok {
				if s, ok := m["message"].(string); ok {
					return s
				}
			}
			if s, ok := v["message"].(string); ok {
				return s
			}
		}
	}
	return trimmed
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
