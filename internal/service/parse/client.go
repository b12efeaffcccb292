package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds the upstream parse call.
const DefaultTimeout = 15 * time.Second

// ClientConfig configures the upstream parser client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Profile string
	Timeout time.Duration
}

// Client talks to a chat-completions style endpoint in JSON mode. Every
// upstream failure degrades to the deterministic fallback; callers only
// see an error when their own context is done.
type Client struct {
	config     ClientConfig
	profile    PromptProfile
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a parser client using the named profile from the
// registry. An empty BaseURL yields a client that always falls back.
func NewClient(config ClientConfig, registry *Registry, logger *slog.Logger) (*Client, error) {
	if config.Profile == "" {
		config.Profile = "intake"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	profile, err := registry.Profile(config.Profile)
	if err != nil {
		return nil, err
	}
	return &Client{
		config:     config,
		profile:    profile,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// wireProposal is the model's JSON output. Dates arrive as ISO 8601
// strings and are decoded leniently.
type wireProposal struct {
	Content         string   `json:"content"`
	Tags            []string `json:"tags"`
	Date            *string  `json:"date"`
	Page            *string  `json:"page"`
	Section         *string  `json:"section"`
	NewPage         bool     `json:"new_page"`
	NewSection      bool     `json:"new_section"`
	ResponseMessage string   `json:"response_message"`
}

type wireResult struct {
	wireProposal
	Plan []struct {
		Description string         `json:"description"`
		ActionCount int            `json:"action_count"`
		Previews    []string       `json:"previews"`
		Actions     []wireProposal `json:"actions"`
	} `json:"plan"`
}

// Parse classifies the utterance against the caller's hierarchy. The
// result is never nil on a nil error.
func (c *Client) Parse(ctx context.Context, utterance string, parseCtx Context) (*Result, error) {
	if c.config.BaseURL == "" {
		return Fallback(utterance), nil
	}

	result, err := c.call(ctx, utterance, parseCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("upstream parse failed, using fallback", "error", err)
		return Fallback(utterance), nil
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, utterance string, parseCtx Context) (*Result, error) {
	userPayload, err := json.Marshal(struct {
		Utterance string  `json:"utterance"`
		Context   Context `json:"context"`
	}{Utterance: utterance, Context: parseCtx})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse input: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.profile.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.profile.SystemPrompt},
			{Role: "user", Content: string(userPayload)},
		},
		MaxTokens:      c.profile.MaxTokens,
		Temperature:    c.profile.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("parse service returned %d: %s", resp.StatusCode, snippet)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("parse response had no choices")
	}

	return decodeResult(chat.Choices[0].Message.Content)
}

func decodeResult(content string) (*Result, error) {
	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("parse output is not valid JSON: %w", err)
	}

	if len(wire.Plan) > 0 {
		result := &Result{Plan: make([]PlanGroup, 0, len(wire.Plan))}
		for _, group := range wire.Plan {
			planGroup := PlanGroup{
				Description: group.Description,
				ActionCount: group.ActionCount,
				Previews:    group.Previews,
				Actions:     make([]Proposal, 0, len(group.Actions)),
			}
			for _, action := range group.Actions {
				planGroup.Actions = append(planGroup.Actions, toProposal(action))
			}
			if planGroup.ActionCount == 0 {
				planGroup.ActionCount = len(planGroup.Actions)
			}
			result.Plan = append(result.Plan, planGroup)
		}
		return result, nil
	}

	if strings.TrimSpace(wire.Content) == "" {
		return nil, fmt.Errorf("parse output has neither content nor plan")
	}
	proposal := toProposal(wire.wireProposal)
	return &Result{Proposal: &proposal}, nil
}

func toProposal(wire wireProposal) Proposal {
	proposal := Proposal{
		Content:         strings.TrimSpace(wire.Content),
		Tags:            wire.Tags,
		NewPage:         wire.NewPage,
		NewSection:      wire.NewSection,
		ResponseMessage: wire.ResponseMessage,
	}
	if wire.Page != nil {
		proposal.Page = strings.TrimSpace(*wire.Page)
	}
	if wire.Section != nil {
		proposal.Section = strings.TrimSpace(*wire.Section)
	}
	if wire.Date != nil {
		if date, err := time.Parse(time.RFC3339, *wire.Date); err == nil {
			proposal.Date = &date
		} else if date, err := time.Parse("2006-01-02", *wire.Date); err == nil {
			proposal.Date = &date
		}
	}
	return proposal
}
