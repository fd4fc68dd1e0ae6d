package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message is one edit sent by a client. ID is the page's session UUID;
// Persistent selects the blob the edit targets.
type Message struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Persistent bool   `json:"persistent"`
}

// wireMessage mirrors Message with pointer fields so absent keys are detectable.
type wireMessage struct {
	ID         *string `json:"id"`
	Content    *string `json:"content"`
	Persistent *bool   `json:"persistent"`
}

// DecodeMessage parses an edit payload. All three fields are required; a
// missing one would otherwise decode as an empty edit and clear a blob.
func DecodeMessage(data json.RawMessage) (Message, error) {
	if len(data) == 0 || string(data) == "null" {
		return Message{}, fmt.Errorf("%w: data is missing", ErrInvalidPayload)
	}

	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var missing []error
	if w.ID == nil {
		missing = append(missing, errors.New("id"))
	}
	if w.Content == nil {
		missing = append(missing, errors.New("content"))
	}
	if w.Persistent == nil {
		missing = append(missing, errors.New("persistent"))
	}
	if len(missing) > 0 {
		return Message{}, fmt.Errorf("%w: missing fields: %w", ErrInvalidPayload, errors.Join(missing...))
	}

	return Message{ID: *w.ID, Content: *w.Content, Persistent: *w.Persistent}, nil
}

// Snapshot is a point-in-time copy of the shared record. Nil pointers mean absent.
type Snapshot struct {
	Content    *string
	Expiry     *time.Time
	Persistent *string
}

// PasteStore holds the shared blobs. Last writer wins.
type PasteStore interface {
	Apply(msg Message)
	Current() string
	Persistent() string
}
