package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/logger"
)

const defaultAllamBaseURL = "https://api.allam.world"

// allamClient talks to the remote OpenAI-compatible chat-completions API.
type allamClient struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	log        *logger.Logger
}

func newAllamClient(cfg config.LLMConfig, httpClient *http.Client, log *logger.Logger) *allamClient {
	return &allamClient{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log.With("transport", TransportAllam),
	}
}

func (c *allamClient) baseURL() string {
	if url := normalizeBaseURL(c.cfg.BaseURL); url != "" {
		return url
	}
	return defaultAllamBaseURL
}

func (c *allamClient) buildMessages(req Request) []Message {
	if len(req.Messages) > 0 {
		messages := make([]Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			role := m.Role
			if role == "" {
				role = "user"
			}
			messages = append(messages, Message{Role: role, Content: m.Content})
		}
		return messages
	}

	var messages []Message
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	if req.Prompt != "" {
		messages = append(messages, Message{Role: "user", Content: req.Prompt})
	}
	return messages
}

func (c *allamClient) buildBody(req Request, stream bool) map[string]any {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	body := map[string]any{
		"model":    model,
		"messages": c.buildMessages(req),
		"stream":   stream,
	}
	if t := firstFloat(req.Temperature, c.cfg.Temperature); t != nil {
		body["temperature"] = *t
	}
	if p := firstFloat(req.TopP, c.cfg.TopP); p != nil {
		body["top_p"] = *p
	}
	if m := firstInt(req.MaxOutputTokens, c.cfg.MaxOutputTokens); m != nil {
		body["max_output_tokens"] = *m
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}
	return body
}

func (c *allamClient) post(ctx context.Context, body map[string]any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allam request: %w", err)
	}
	url := c.baseURL() + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create allam request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("allam request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Provider: TransportAllam, Detail: extractErrorDetail(raw)}
	}
	return resp, nil
}

type allamChoice struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Delta *struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type allamPayload struct {
	Choices  []allamChoice `json:"choices"`
	Text     string        `json:"text"`
	Response string        `json:"response"`
}

func (p *allamPayload) text() string {
	if len(p.Choices) > 0 {
		choice := p.Choices[0]
		if choice.Message != nil && choice.Message.Content != "" {
			return choice.Message.Content
		}
		if choice.Delta != nil && choice.Delta.Content != "" {
			return choice.Delta.Content
		}
	}
	if p.Text != "" {
		return p.Text
	}
	return p.Response
}

func (c *allamClient) Call(ctx context.Context, req Request) (*Reply, error) {
	resp, err := c.post(ctx, c.buildBody(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read allam response: %w", err)
	}
	var payload allamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode allam response: %w", err)
	}
	return &Reply{Text: payload.text(), Raw: raw}, nil
}

const doneSentinel = "[DONE]"

func (c *allamClient) Stream(ctx context.Context, req Request, onEvent func(Event)) error {
	resp, err := c.post(ctx, c.buildBody(req, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	doneSent := false
	err = ParseSSE(resp.Body, func(payloadText string) {
		if strings.TrimSpace(payloadText) == doneSentinel {
			if !doneSent {
				doneSent = true
				onEvent(Event{Done: true})
			}
			return
		}
		var payload allamPayload
		if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
			c.log.Warn("Ignoring malformed allam SSE payload", "payload", payloadText, "error", err)
			return
		}
		for _, choice := range payload.Choices {
			if choice.Delta != nil && choice.Delta.Content != "" {
				onEvent(Event{Token: choice.Delta.Content})
			}
			if choice.FinishReason != "" && !doneSent {
				doneSent = true
				onEvent(Event{Done: true, FinishReason: choice.FinishReason})
			}
		}
	})
	if err != nil {
		return err
	}
	if !doneSent {
		onEvent(Event{Done: true})
	}
	return nil
}
