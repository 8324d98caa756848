// Package notification defines the outbound message contract and the
// template builders for patient-facing WhatsApp messages.
package notification

import (
	"context"
	"encoding/json"
)

// MessageType selects between free-text and pre-approved template sends.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeTemplate MessageType = "template"
)

// Options carries per-send transport options.
type Options struct {
	Type         MessageType
	TemplateName string
	Language     string
	Parameters   []string
}

// SendResult is what a channel reports back after a delivery attempt.
type SendResult struct {
	Success     bool            `json:"success"`
	MessageID   string          `json:"message_id,omitempty"`
	Simulated   bool            `json:"simulated,omitempty"`
	RawResponse json.RawMessage `json:"response,omitempty"`
}

// Channel is the consumed capability for outbound notifications. Transport
// failures are returned as errors; the caller owns retry bookkeeping.
type Channel interface {
	Send(ctx context.Context, recipient, body string, opts Options) (*SendResult, error)
	IsAvailable() bool
	Name() string
}
