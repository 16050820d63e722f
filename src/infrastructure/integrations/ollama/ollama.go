package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"

	"evalviewer/src/core/completion"
	"evalviewer/src/log"
)

const (
	DefaultURL = "http://localhost:11434/api"
)

// Client talks to the Ollama chat endpoint
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	options    map[string]interface{}
}

var _ completion.Completer = (*Client)(nil)

// NewClient creates a new Ollama API client answering with model
func NewClient(baseURL, model string, c *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if c == nil {
		c = http.DefaultClient
	}

	return &Client{
		httpClient: c,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		options: map[string]interface{}{
			"temperature": 0.0,
		},
	}
}

// Complete sends the conversation to /chat and collects the streamed reply
func (c *Client) Complete(ctx context.Context, messages []completion.Message) (completion.Result, error) {
	stream := true
	reqBody := api.ChatRequest{
		Model:    c.model,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
		Options:  c.options,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, api.Message{Role: m.Role, Content: m.Content})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return completion.Result{}, fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/chat", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return completion.Result{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error(err, "failed to make request to ollama")
		return completion.Result{}, completion.Transient(fmt.Errorf("error making request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return completion.Result{}, completion.Transient(err)
		}
		return completion.Result{}, err
	}

	reader := bufio.NewReader(resp.Body)
	var fullResponse strings.Builder

	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var chunk api.ChatResponse
			if uerr := json.Unmarshal(line, &chunk); uerr != nil {
				log.Error(uerr, "failed to unmarshal response line", "line", string(line))
				return completion.Result{}, fmt.Errorf("error unmarshaling response: %w", uerr)
			}

			fullResponse.WriteString(chunk.Message.Content)

			if chunk.Done {
				reason := chunk.DoneReason
				if reason == "" {
					reason = "stop"
				}
				return completion.Result{Text: fullResponse.String(), FinishReason: reason}, nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return completion.Result{}, completion.Transient(fmt.Errorf("error reading response: %w", err))
		}
	}

	return completion.Result{}, completion.Transient(fmt.Errorf("ollama stream ended before done"))
}
