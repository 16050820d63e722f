package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"evalviewer/src/core/completion"
	"evalviewer/src/infrastructure/integrations/openai"
)

const chatResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [
    {"index": 0, "finish_reason": "length", "message": {"role": "assistant", "content": "4"}}
  ]
}`

func TestComplete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse))
	}))
	defer srv.Close()

	c, err := openai.NewClient(openai.Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/v1/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Complete(context.Background(), []completion.Message{
		{Role: "system", Content: "you are a calculator"},
		{Role: "user", Content: "2+2"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Text != "4" || res.FinishReason != "length" {
		t.Errorf("Complete() = %+v", res)
	}
	if body.Model != openai.DefaultModel || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
		t.Errorf("request body = %+v", body)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "bad request", status: http.StatusBadRequest, wantTransient: false},
		{name: "unauthorized", status: http.StatusUnauthorized, wantTransient: false},
		{name: "rate limited", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "server error", status: http.StatusInternalServerError, wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			}))
			defer srv.Close()

			c, err := openai.NewClient(openai.Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
			if err != nil {
				t.Fatal(err)
			}

			_, err = c.Complete(context.Background(), []completion.Message{{Role: "user", Content: "hi"}})
			if err == nil {
				t.Fatal("Complete() error = nil")
			}
			if got := completion.IsTransient(err); got != tt.wantTransient {
				t.Errorf("IsTransient(%v) = %v, want %v", err, got, tt.wantTransient)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := openai.NewClient(openai.Config{}); err == nil {
		t.Error("NewClient() error = nil, want missing key error")
	}
}
