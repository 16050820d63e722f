package completion

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	ErrUpstream      = errors.New("completion: upstream request failed")
	ErrNotConfigured = errors.New("completion: no chat-completion provider configured")
	ErrEmptyResponse = errors.New("completion: response carried no choices")
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the model reply.
type Result struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// Completer sends a conversation to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (Result, error)
}

// TransientError marks a failure that may succeed when retried, such as a
// dropped connection or a 5xx / 429 answer.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is worth retrying: explicitly marked
// errors, network timeouts and resets, and attempt deadlines.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// Disabled is the Completer used when no provider is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message) (Result, error) {
	return Result{}, ErrNotConfigured
}
