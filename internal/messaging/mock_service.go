package messaging

import (
	"context"
	"sync"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// MockService is an in-memory Service double for tests. Rendered template
// sends are captured in Sent alongside plain texts so assertions can match
// on final user-visible bodies.
type MockService struct {
	mu          sync.Mutex
	Sent        []MockMessage
	Attachments []MockMessage
	events      chan models.InboundEvent
}

// MockMessage is one captured outbound notification.
type MockMessage struct {
	To       string
	Body     string
	Template TemplateKind
	MediaURL string
}

// NewMockService creates an empty mock messaging service.
func NewMockService() *MockService {
	return &MockService{events: make(chan models.InboundEvent, DefaultChannelBufferSize)}
}

func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

func (m *MockService) SendText(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, MockMessage{To: to, Body: body})
	return nil
}

func (m *MockService) SendTemplate(ctx context.Context, to string, kind TemplateKind, params map[string]string) error {
	body, err := RenderTemplate(kind, params)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, MockMessage{To: to, Body: body, Template: kind})
	return nil
}

func (m *MockService) SendAttachment(ctx context.Context, to string, mediaURL string, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attachments = append(m.Attachments, MockMessage{To: to, Body: caption, MediaURL: mediaURL})
	return nil
}

func (m *MockService) Start(ctx context.Context) error { return nil }

func (m *MockService) Stop() error { return nil }

func (m *MockService) Events() <-chan models.InboundEvent { return m.events }

// Emit injects an inbound event, simulating a webhook delivery.
func (m *MockService) Emit(event models.InboundEvent) {
	m.events <- event
}

// LastMessage returns the most recent outbound message, or nil when none.
func (m *MockService) LastMessage() *MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	out := m.Sent[len(m.Sent)-1]
	return &out
}

// MessageCount returns how many outbound messages were captured.
func (m *MockService) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
