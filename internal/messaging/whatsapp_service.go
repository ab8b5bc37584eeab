package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp
// client, for running the bot against WhatsApp directly.
type WhatsAppService struct {
	client   whatsapp.WhatsAppSender
	waClient *whatsapp.Client // full client for event handling, nil for mocks
	events   chan models.InboundEvent
	done     chan struct{}
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given sender.
func NewWhatsAppService(client whatsapp.WhatsAppSender) *WhatsAppService {
	service := &WhatsAppService{
		client: client,
		events: make(chan models.InboundEvent, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}

	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsAppService created with full client for event handling")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}

	return service
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp
// phone number by stripping non-numeric characters.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizePhone(recipient)
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	return canonical, nil
}

// Start begins background event processing.
func (s *WhatsAppService) Start(ctx context.Context) error {
	slog.Debug("WhatsAppService Start invoked")
	if s.waClient != nil {
		go s.handleEvents(ctx)
	} else {
		slog.Debug("WhatsAppService no full client available, skipping event handling")
	}
	return nil
}

// Stop stops background processing.
func (s *WhatsAppService) Stop() error {
	slog.Info("WhatsAppService Stop invoked")
	close(s.done)
	close(s.events)
	return nil
}

// SendText sends a plain text message.
func (s *WhatsAppService) SendText(ctx context.Context, to string, body string) error {
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendText validation error", "error", err, "to", to)
		return err
	}
	return s.client.SendMessage(ctx, canonicalTo, body)
}

// SendTemplate renders a named template and sends it as text.
func (s *WhatsAppService) SendTemplate(ctx context.Context, to string, kind TemplateKind, params map[string]string) error {
	body, err := RenderTemplate(kind, params)
	if err != nil {
		slog.Error("WhatsAppService SendTemplate render error", "error", err, "kind", kind, "to", to)
		return err
	}
	return s.SendText(ctx, to, body)
}

// SendAttachment sends a document by URL with an optional caption.
func (s *WhatsAppService) SendAttachment(ctx context.Context, to string, mediaURL string, caption string) error {
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService SendAttachment validation error", "error", err, "to", to)
		return err
	}
	return s.client.SendDocument(ctx, canonicalTo, mediaURL, caption)
}

// Events returns the channel of inbound user events.
func (s *WhatsAppService) Events() <-chan models.InboundEvent {
	return s.events
}

// handleEvents registers a whatsmeow event handler and feeds inbound text
// messages into the events channel until the context is cancelled.
func (s *WhatsAppService) handleEvents(ctx context.Context) {
	slog.Debug("WhatsAppService handleEvents starting")

	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Error("WhatsAppService handleEvents: no client available")
		return
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			s.handleIncomingMessage(v)
		default:
			// Ignore receipts, presence, and connection events.
		}
	})

	slog.Debug("WhatsAppService event handler registered")
	<-ctx.Done()
	slog.Debug("WhatsAppService handleEvents stopping due to context cancellation")
}

// handleIncomingMessage converts one whatsmeow message event into an
// InboundEvent. Direct WhatsApp has no button payloads; attachments are
// surfaced through the media fields.
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	event := models.InboundEvent{
		UserID: evt.Info.Sender.User,
		Time:   evt.Info.Timestamp.Unix(),
	}

	switch {
	case evt.Message.Conversation != nil:
		event.Text = *evt.Message.Conversation
	case evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil:
		event.Text = *evt.Message.ExtendedTextMessage.Text
	case evt.Message.ImageMessage != nil:
		event.MediaCount = 1
		if evt.Message.ImageMessage.URL != nil {
			event.MediaURL = *evt.Message.ImageMessage.URL
		}
		if evt.Message.ImageMessage.Mimetype != nil {
			event.MediaContentType = *evt.Message.ImageMessage.Mimetype
		}
	case evt.Message.DocumentMessage != nil:
		event.MediaCount = 1
		if evt.Message.DocumentMessage.URL != nil {
			event.MediaURL = *evt.Message.DocumentMessage.URL
		}
		if evt.Message.DocumentMessage.Mimetype != nil {
			event.MediaContentType = *evt.Message.DocumentMessage.Mimetype
		}
	default:
		slog.Debug("WhatsAppService ignoring unsupported message type", "from", evt.Info.Sender.String())
		return
	}

	slog.Debug("WhatsAppService processing incoming message", "from", event.UserID, "body_length", len(event.Text), "media_count", event.MediaCount)

	select {
	case s.events <- event:
		slog.Info("WhatsAppService incoming message forwarded", "from", event.UserID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService events channel blocked, dropping message", "from", event.UserID, "timeout", DefaultChannelTimeout)
	}
}
