package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"evalviewer/src/core/completion"
)

const DefaultModel = "gpt-3.5-turbo"

// Client implements completion.Completer over the OpenAI Chat Completions API.
// Retries are left to completion.Resilient, so the SDK's own are disabled.
type Client struct {
	client openai.Client
	model  string
}

var _ completion.Completer = (*Client)(nil)

// Config holds the credential and endpoint of the OpenAI API
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a Client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, messages []completion.Message) (completion.Result, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		params.Messages = append(params.Messages, toParam(m))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return completion.Result{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return completion.Result{}, completion.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	return completion.Result{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}

func toParam(m completion.Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case "system":
		return openai.SystemMessage(m.Content)
	case "developer":
		return openai.DeveloperMessage(m.Content)
	case "assistant":
		return openai.AssistantMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}

// classify marks rate limits, server errors and transport failures as
// transient; other API errors (bad request, auth) are returned as they are.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests {
			return completion.Transient(err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return completion.Transient(err)
}
