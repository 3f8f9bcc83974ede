package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/logger"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaClient talks to a local Ollama-style server. Requests carrying a
// structured message list go to /api/chat, flattened prompts to
// /api/generate; the stream flag is always set explicitly.
type ollamaClient struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	log        *logger.Logger
}

func newOllamaClient(cfg config.LLMConfig, httpClient *http.Client, log *logger.Logger) *ollamaClient {
	return &ollamaClient{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log.With("transport", TransportOllama),
	}
}

func (c *ollamaClient) baseURL() string {
	if url := normalizeBaseURL(c.cfg.BaseURL); url != "" {
		return url
	}
	return defaultOllamaBaseURL
}

func (c *ollamaClient) buildBody(req Request, stream bool) (endpoint string, body map[string]any) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	body = map[string]any{
		"model":  model,
		"stream": stream,
	}

	if len(req.Messages) > 0 {
		endpoint = "chat"
		messages := make([]Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			role := m.Role
			if role == "" {
				role = "user"
			}
			messages = append(messages, Message{Role: role, Content: m.Content})
		}
		body["messages"] = messages
	} else {
		endpoint = "generate"
		body["prompt"] = req.Prompt
		if req.Format != "" {
			body["format"] = req.Format
		}
		if len(req.Images) > 0 {
			body["images"] = req.Images
		}
		if req.KeepAlive != nil {
			body["keep_alive"] = req.KeepAlive
		}
		if len(req.Context) > 0 {
			body["context"] = req.Context
		}
	}

	options := map[string]any{}
	if t := firstFloat(req.Temperature, c.cfg.Temperature); t != nil {
		options["temperature"] = *t
	}
	if p := firstFloat(req.TopP, c.cfg.TopP); p != nil {
		options["top_p"] = *p
	}
	if m := firstInt(req.MaxOutputTokens, c.cfg.MaxOutputTokens); m != nil {
		options["num_predict"] = *m
	}
	if len(options) > 0 {
		body["options"] = options
	}
	return endpoint, body
}

func (c *ollamaClient) post(ctx context.Context, endpoint string, body map[string]any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}
	url := fmt.Sprintf("%s/api/%s", c.baseURL(), endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Provider: TransportOllama, Detail: extractErrorDetail(raw)}
	}
	return resp, nil
}

type ollamaPayload struct {
	Done     bool   `json:"done"`
	Response string `json:"response"`
	Message  *struct {
		Content string `json:"content"`
	} `json:"message"`
	Text string `json:"text"`
}

func (p *ollamaPayload) text() string {
	if p.Response != "" {
		return p.Response
	}
	if p.Message != nil && p.Message.Content != "" {
		return p.Message.Content
	}
	return p.Text
}

func (c *ollamaClient) Call(ctx context.Context, req Request) (*Reply, error) {
	endpoint, body := c.buildBody(req, false)
	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ollama response: %w", err)
	}
	var payload ollamaPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return &Reply{Text: payload.text(), Raw: raw}, nil
}

func (c *ollamaClient) Stream(ctx context.Context, req Request, onEvent func(Event)) error {
	endpoint, body := c.buildBody(req, true)
	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return ParseNDJSON(resp.Body, func(payloadText string) {
		var payload ollamaPayload
		if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
			c.log.Warn("Ignoring malformed ollama stream payload", "payload", payloadText, "error", err)
			return
		}
		if payload.Done {
			onEvent(Event{Done: true})
			return
		}
		if payload.Response != "" {
			onEvent(Event{Token: payload.Response})
			return
		}
		if payload.Message != nil && payload.Message.Content != "" {
			onEvent(Event{Token: payload.Message.Content})
		}
	})
}
