package apiclient

import (
	"encoding/json"
	"fmt"
)

// Envelope is the response wrapper both backends use. The commerce backend
// puts its payload under "data", the shop backend under "content"; exactly
// one of the two is populated on success.
type Envelope struct {
	Error   *string         `json:"error"`
	Data    json.RawMessage `json:"data,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Payload returns whichever of Data/Content the backend populated.
func (e *Envelope) Payload() json.RawMessage {
	if len(e.Data) > 0 {
		return e.Data
	}
	return e.Content
}

// Err returns the envelope error as a Go error, or nil.
func (e *Envelope) Err() error {
	if e.Error != nil && *e.Error != "" {
		return fmt.Errorf("backend error: %s", *e.Error)
	}
	return nil
}

// Unwrap decodes an envelope from raw and, when the envelope carries no
// error, decodes its payload into target. Callers that want the body
// untouched use Do directly instead.
func Unwrap(raw json.RawMessage, target any) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}

	if err := env.Err(); err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(env.Payload(), target); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}
