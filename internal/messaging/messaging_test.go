package messaging

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/atlasmarkets/tradebot/internal/twiliowhatsapp"
)

func TestCanonicalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 000-1111", "15550001111", false},
		{"whatsapp:+15550001111", "15550001111", false},
		{"12345", "", true},
		{"", "", true},
		{"no digits here", "", true},
	}
	for _, tt := range tests {
		got, err := canonicalizePhone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("canonicalizePhone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("canonicalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTemplate(t *testing.T) {
	body, err := RenderTemplate(TemplateMainMenu, map[string]string{"firstName": "Ada"})
	if err != nil {
		t.Fatalf("RenderTemplate failed: %v", err)
	}
	if !strings.Contains(body, "Hi Ada!") {
		t.Errorf("expected substituted name, got %q", body)
	}
}

func TestRenderTemplateUnresolvedParamFails(t *testing.T) {
	if _, err := RenderTemplate(TemplateMainMenu, nil); err == nil {
		t.Error("expected error for unresolved parameter")
	}
}

func TestRenderTemplateUnknownKindFails(t *testing.T) {
	if _, err := RenderTemplate(TemplateKind("nonexistent"), nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTwilioWebhookEmitsNormalizedEvent(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+15550001111")
	form.Set("Body", "hello")
	form.Set("ButtonPayload", "main_menu_login_list")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://cdn.example/doc.jpg")
	form.Set("MediaContentType0", "image/jpeg")

	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.WebhookHandler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case event := <-svc.Events():
		if event.UserID != "15550001111" {
			t.Errorf("expected canonicalized sender, got %q", event.UserID)
		}
		if event.Text != "hello" || event.ButtonPayload != "main_menu_login_list" {
			t.Errorf("unexpected event: %+v", event)
		}
		if !event.HasMedia() || event.MediaURL != "https://cdn.example/doc.jpg" {
			t.Errorf("expected media on event: %+v", event)
		}
	default:
		t.Fatal("expected an inbound event")
	}
}

func TestTwilioWebhookRejectsMissingSender(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("Body", "hello")
	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.WebhookHandler(rec, req)

	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTwilioSendAfterStopFails(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.SendText(context.Background(), "+15550001111", "hi"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

func TestTwilioSendTextDeliversThroughClient(t *testing.T) {
	client := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(client)

	if err := svc.SendText(context.Background(), "+1 (555) 000-1111", "hello"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if len(client.SentMessages) != 1 {
		t.Fatalf("expected one sent message, got %d", len(client.SentMessages))
	}
	if client.SentMessages[0].To != "15550001111" || client.SentMessages[0].Body != "hello" {
		t.Errorf("unexpected sent message: %+v", client.SentMessages[0])
	}
}
