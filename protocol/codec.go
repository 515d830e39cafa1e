package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrBadFrame       = errors.New("malformed frame")
	ErrMissingType    = errors.New("frame is missing type field")
	ErrMissingMessage = errors.New("frame is missing message field")
)

// DecodeInbound parses a client frame. Both the "type" and "message" fields
// must be present; a frame missing either is rejected, it is not guessed at.
func DecodeInbound(data []byte) (Inbound, error) {
	var raw struct {
		Type    *string `json:"type"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if raw.Type == nil {
		return Inbound{}, ErrMissingType
	}
	if raw.Message == nil {
		return Inbound{}, ErrMissingMessage
	}
	return Inbound{Type: *raw.Type, Message: *raw.Message}, nil
}

// EncodeChatMessage builds the broadcast frame for one newly stored message.
// The payload is wrapped in a one-element list for client-side uniformity
// with history batches.
func EncodeChatMessage(msg MessagePayload) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:    TypeChatMessage,
		Message: []MessagePayload{msg},
	})
}

// EncodeHistory builds the history reply frame. Messages must already be in
// display order, oldest first.
func EncodeHistory(msgs []MessagePayload) ([]byte, error) {
	if msgs == nil {
		msgs = []MessagePayload{}
	}
	return json.Marshal(Envelope{
		Type:    TypeAllMessage,
		Message: msgs,
	})
}

// EncodeError builds an error frame for the sender.
func EncodeError(text string) ([]byte, error) {
	return json.Marshal(ErrorFrame{
		Type:    TypeError,
		Message: text,
	})
}
