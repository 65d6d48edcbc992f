package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RenderRequestMessage asks a worker to regenerate one account's display.
// An empty OutputPath means the worker's configured default.
type RenderRequestMessage struct {
	Account     string    `json:"account"`
	OutputPath  string    `json:"output_path,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRenderRequestMessage creates a request stamped with the current time.
func NewRenderRequestMessage(account, outputPath string) *RenderRequestMessage {
	return &RenderRequestMessage{
		Account:     account,
		OutputPath:  outputPath,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RenderRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RenderRequestMessageFromJSON decodes and validates a message.
func RenderRequestMessageFromJSON(data []byte) (*RenderRequestMessage, error) {
	var msg RenderRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Account == "" {
		return nil, errors.New("render request without account")
	}
	return &msg, nil
}

// ErrPermanent marks handler failures that redelivery cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the consumer drops the message instead of
// requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
