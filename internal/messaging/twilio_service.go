package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/twiliowhatsapp"
)

// TwilioService implements Service using the Twilio WhatsApp API. Inbound
// events arrive through the webhook handler; outbound delivery goes through
// the injected sender (real Twilio client or mock).
type TwilioService struct {
	client  twiliowhatsapp.TwilioWhatsAppSender
	events  chan models.InboundEvent
	done    chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// NewTwilioService creates a TwilioService around the given sender.
func NewTwilioService(client twiliowhatsapp.TwilioWhatsAppSender) *TwilioService {
	return &TwilioService{
		client: client,
		events: make(chan models.InboundEvent, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp
// phone number by stripping non-numeric characters.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizePhone(recipient)
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	if canonical != recipient {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op for Twilio; events are pushed by the webhook handler.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.events)
	}()

	return nil
}

// SendText sends a plain text message.
func (s *TwilioService) SendText(ctx context.Context, to string, body string) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendText validation error", "error", err, "to", to)
		return err
	}
	return s.client.SendMessage(ctx, canonicalTo, body)
}

// SendTemplate renders a named template and sends it as text.
func (s *TwilioService) SendTemplate(ctx context.Context, to string, kind TemplateKind, params map[string]string) error {
	body, err := RenderTemplate(kind, params)
	if err != nil {
		slog.Error("TwilioService SendTemplate render error", "error", err, "kind", kind, "to", to)
		return err
	}
	return s.SendText(ctx, to, body)
}

// SendAttachment sends a media message by URL with an optional caption.
func (s *TwilioService) SendAttachment(ctx context.Context, to string, mediaURL string, caption string) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendAttachment validation error", "error", err, "to", to)
		return err
	}
	return s.client.SendMediaMessage(ctx, canonicalTo, caption, mediaURL)
}

// Events returns the channel of inbound user events.
func (s *TwilioService) Events() <-chan models.InboundEvent {
	return s.events
}

func (s *TwilioService) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

// WebhookHandler handles inbound Twilio webhook requests. It parses the
// delivery fields this system consumes (sender, body, button payload, first
// attachment, attachment count) and emits a normalized InboundEvent.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	buttonPayload := r.FormValue("ButtonPayload")
	mediaURL := r.FormValue("MediaUrl0")
	mediaContentType := r.FormValue("MediaContentType0")
	mediaCount, _ := strconv.Atoi(r.FormValue("NumMedia"))

	if from == "" {
		slog.Warn("Twilio webhook missing sender", "body_length", len(body))
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	canonicalFrom, err := s.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Warn("Twilio webhook invalid sender", "error", err, "from", from)
		http.Error(w, "Invalid sender", http.StatusBadRequest)
		return
	}

	slog.Info("Inbound WhatsApp message from Twilio",
		"from", canonicalFrom, "body_length", len(body), "button_payload", buttonPayload, "media_count", mediaCount)

	s.safeEmitEvent(models.InboundEvent{
		UserID:           canonicalFrom,
		Text:             body,
		ButtonPayload:    buttonPayload,
		MediaURL:         mediaURL,
		MediaContentType: mediaContentType,
		MediaCount:       mediaCount,
		Time:             time.Now().Unix(),
	})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// safeEmitEvent pushes an event into the events channel without blocking
// forever if the consumer stalls.
func (s *TwilioService) safeEmitEvent(event models.InboundEvent) {
	if s.isStopped() {
		slog.Warn("TwilioService dropping inbound event (service stopped)", "from", event.UserID)
		return
	}

	select {
	case s.events <- event:
		slog.Debug("TwilioService emitted inbound event", "from", event.UserID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService events channel blocked, dropping message", "from", event.UserID)
	}
}
