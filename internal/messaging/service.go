// Package messaging provides the outbound notifier and inbound event plumbing
// for tradebot's messaging channels (Twilio WhatsApp and direct whatsmeow).
package messaging

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// Constants for messaging service configuration.
const (
	// DefaultChannelBufferSize defines the buffer size for inbound event channels.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the timeout for non-blocking channel operations.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service is stopped")

// phoneNumberRegex strips non-numeric characters during canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Service defines a pluggable message delivery abstraction: the notifier
// side (text, templates, attachments) plus a channel of inbound events.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient identifier. Returns the canonicalized recipient and an error
	// if validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendText sends a plain text message to a recipient.
	SendText(ctx context.Context, to string, body string) error

	// SendTemplate renders a named template with params and sends it.
	SendTemplate(ctx context.Context, to string, kind TemplateKind, params map[string]string) error

	// SendAttachment sends a binary attachment by URL, with an optional caption.
	SendAttachment(ctx context.Context, to string, mediaURL string, caption string) error

	// Start begins any background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns a channel of inbound user events.
	Events() <-chan models.InboundEvent
}

// canonicalizePhone removes all non-numeric characters and validates the
// result has at least 6 digits.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", errors.New("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", errors.New("invalid phone number: no digits found")
	}
	if len(canonical) < 6 {
		return "", errors.New("invalid phone number: minimum 6 digits required")
	}
	return canonical, nil
}
