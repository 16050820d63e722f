package samples

import (
	"encoding/json"
	"fmt"
)

// Record is one parsed sample line. Its expected shape is
// {"input": [{"role": ..., "content": ...}, ...], "ideal": ...}.
type Record map[string]any

// Message is one chat turn of a sample's input.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Parse decodes one sample line. Malformed JSON fails with ErrInvalidFormat.
func Parse(line string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return v, nil
}

// Check reports whether sample has the minimal expected shape: an object
// with a non-empty input list whose first element is an object carrying a
// role, plus an ideal key of any type.
func Check(sample any) error {
	m, ok := asObject(sample)
	if !ok {
		return fmt.Errorf("%w: sample is not an object", ErrInvalidFormat)
	}

	input, ok := m["input"].([]any)
	if !ok {
		return fmt.Errorf("%w: input is missing or not a list", ErrInvalidFormat)
	}
	if len(input) == 0 {
		return fmt.Errorf("%w: input is empty", ErrInvalidFormat)
	}

	first, ok := asObject(input[0])
	if !ok {
		return fmt.Errorf("%w: first input message is not an object", ErrInvalidFormat)
	}
	if _, ok := first["role"]; !ok {
		return fmt.Errorf("%w: first input message has no role", ErrInvalidFormat)
	}

	if _, ok := m["ideal"]; !ok {
		return fmt.Errorf("%w: ideal is missing", ErrInvalidFormat)
	}

	return nil
}

// Validate returns sample as a Record when it passes Check, and the
// canonical invalid-format record otherwise.
func Validate(sample any) Record {
	if err := Check(sample); err != nil {
		return ErrorRecord(ReasonInvalidFormat)
	}
	m, _ := asObject(sample)
	return Record(m)
}

// ErrorRecord builds the placeholder sample shown instead of a real one.
func ErrorRecord(reason string) Record {
	return Record{
		"input": []any{
			map[string]any{"role": "error", "content": reason},
		},
		"ideal": "",
	}
}

// MessagesOf extracts the chat turns of a validated record. Non-string
// content is passed on as its JSON text.
func MessagesOf(rec Record) []Message {
	input, _ := rec["input"].([]any)

	messages := make([]Message, 0, len(input))
	for _, item := range input {
		m, ok := asObject(item)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		messages = append(messages, Message{Role: role, Content: text(m["content"])})
	}
	return messages
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(data)
	}
}
