package dialog

import (
	"context"
	"strings"
	"testing"

	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
)

const testUserID = "+15550001111"

func newTestEngine() (*Engine, *backend.MockGateway, *messaging.MockService) {
	gw := backend.NewMockGateway()
	svc := messaging.NewMockService()
	return NewEngine(gw, svc), gw, svc
}

func sessionAt(step models.Step, data map[string]string) models.Session {
	s := models.NewSession(testUserID)
	s.Step = step
	if data != nil {
		s.Data = data
	}
	return s
}

func textEvent(text string) models.InboundEvent {
	return models.InboundEvent{UserID: testUserID, Text: text}
}

func payloadEvent(payload string) models.InboundEvent {
	return models.InboundEvent{UserID: testUserID, ButtonPayload: payload}
}

func lastBody(t *testing.T, svc *messaging.MockService) string {
	t.Helper()
	msg := svc.LastMessage()
	if msg == nil {
		t.Fatal("expected at least one outbound message")
	}
	return msg.Body
}

// stepTurn runs one engine turn and delivers its replies, mirroring the turn
// handler's order once the session save succeeds.
func stepTurn(ctx context.Context, e *Engine, session models.Session, event models.InboundEvent) (models.Session, error) {
	next, replies, err := e.Step(ctx, session, event)
	if err != nil {
		return next, err
	}
	e.deliver(ctx, event.UserID, replies)
	return next, nil
}

func TestGreetingRestartsUnknownUser(t *testing.T) {
	engine, _, svc := newTestEngine()

	session := sessionAt(models.StepDepositAmount, map[string]string{dataToken: "tok"})
	next, err := stepTurn(context.Background(), engine, session, textEvent("hi"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepLanguageSelection {
		t.Errorf("expected language selection, got %s", next.Step)
	}
	if len(next.Data) != 0 {
		t.Errorf("expected cleared data bag, got %v", next.Data)
	}
	if !strings.Contains(lastBody(t, svc), "choose your language") {
		t.Errorf("expected language prompt, got %q", lastBody(t, svc))
	}
}

func TestGreetingSilentlyReauthenticatesApprovedUser(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.FindUserByIdentifierFn = func(phone string) (*models.User, error) {
		return &models.User{ID: "u1", FirstName: "Ada", Token: "tok-1", KYCStatus: models.KYCStatusApproved}, nil
	}

	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLanguageSelection, nil), textEvent("hello"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepMainMenu {
		t.Errorf("expected main menu, got %s", next.Step)
	}
	if next.Get(dataToken) != "tok-1" {
		t.Errorf("expected token in data bag, got %q", next.Get(dataToken))
	}
	if next.Language != models.LanguageEnglish {
		t.Errorf("expected english language, got %q", next.Language)
	}
	if !strings.Contains(lastBody(t, svc), "Hi Ada!") {
		t.Errorf("expected personalized menu, got %q", lastBody(t, svc))
	}
}

func TestGreetingRoutesUnverifiedUserToVerification(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.FindUserByIdentifierFn = func(phone string) (*models.User, error) {
		return &models.User{ID: "u1", Token: "tok-1"}, nil
	}
	gw.CheckIdentityStatusFn = func(token string) (string, error) {
		return models.KYCStatusUnverified, nil
	}

	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLanguageSelection, nil), textEvent("hi"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepKYCStart {
		t.Errorf("expected verification start, got %s", next.Step)
	}
	if !strings.Contains(lastBody(t, svc), "verify your identity") {
		t.Errorf("expected verification intro, got %q", lastBody(t, svc))
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	engine, gw, _ := newTestEngine()

	session := sessionAt(models.StepMainMenu, map[string]string{dataToken: "tok", dataUserID: "u1"})
	next, err := stepTurn(context.Background(), engine, session, textEvent("logout"))
	if err != nil {
		t.Fatalf("first logout failed: %v", err)
	}
	if next.Step != models.StepLanguageSelection {
		t.Errorf("expected language selection after logout, got %s", next.Step)
	}
	if len(next.Data) != 0 {
		t.Errorf("expected cleared data bag, got %v", next.Data)
	}

	again, err := stepTurn(context.Background(), engine, next, textEvent("logout"))
	if err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if again.Step != models.StepLanguageSelection {
		t.Errorf("expected language selection after repeated logout, got %s", again.Step)
	}
	if gw.CallCount("DeleteUser") != 1 {
		t.Errorf("expected one backend delete, got %d", gw.CallCount("DeleteUser"))
	}
}

func TestLanguageSelection(t *testing.T) {
	engine, _, _ := newTestEngine()

	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLanguageSelection, nil), payloadEvent(models.PayloadLanguageEnglish))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepMainMenu {
		t.Errorf("expected main menu, got %s", next.Step)
	}
	if next.Language != models.LanguageEnglish {
		t.Errorf("expected english, got %q", next.Language)
	}

	stayed, err := stepTurn(context.Background(), engine, sessionAt(models.StepLanguageSelection, nil), textEvent("français"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if stayed.Step != models.StepLanguageSelection {
		t.Errorf("expected to stay on language selection, got %s", stayed.Step)
	}
}

func TestUnknownPersistedStepFallsBackToGreeting(t *testing.T) {
	engine, _, _ := newTestEngine()

	session := sessionAt(models.Step("retired-step"), nil)
	next, err := stepTurn(context.Background(), engine, session, textEvent("what?"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepLanguageSelection {
		t.Errorf("expected greeting fallback to language selection, got %s", next.Step)
	}
}

func TestSignupFlowEndToEnd(t *testing.T) {
	engine, gw, svc := newTestEngine()
	var registered models.SignupRequest
	gw.RegisterUserFn = func(req models.SignupRequest) (*models.User, error) {
		registered = req
		return &models.User{ID: "u-new", FirstName: req.FirstName, Token: "tok-new"}, nil
	}

	ctx := context.Background()
	session := sessionAt(models.StepMainMenu, nil)

	steps := []struct {
		event models.InboundEvent
		want  models.Step
	}{
		{payloadEvent(models.PayloadMainMenuSignup), models.StepSignupFirstName},
		{textEvent("Grace"), models.StepSignupLastName},
		{textEvent("Hopper"), models.StepSignupEmail},
		{textEvent("grace@example.com"), models.StepSignupPhone},
		{textEvent("+1 555 000 2222"), models.StepSignupPassword},
		{textEvent("Secret1!"), models.StepSignupConfirmPassword},
		{textEvent("Secret1!"), models.StepSignupReview},
		{payloadEvent(models.PayloadSignupReviewConfirm), models.StepKYCStart},
	}
	var err error
	for i, step := range steps {
		session, err = stepTurn(ctx, engine, session, step.event)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if session.Step != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, session.Step)
		}
	}

	if registered.Email != "grace@example.com" || registered.FirstName != "Grace" || registered.Password != "Secret1!" {
		t.Errorf("unexpected signup request: %+v", registered)
	}
	if session.Get(dataSignupPassword) != "" {
		t.Error("expected password cleared from data bag after registration")
	}
	if !strings.Contains(lastBody(t, svc), "verify your identity") {
		t.Errorf("expected verification intro after signup, got %q", lastBody(t, svc))
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	engine, _, svc := newTestEngine()

	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepSignupPassword, nil), textEvent("password"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepSignupPassword {
		t.Errorf("expected to stay on password step, got %s", next.Step)
	}
	if !strings.Contains(lastBody(t, svc), "too weak") {
		t.Errorf("expected weak-password message, got %q", lastBody(t, svc))
	}
}

func TestSignupDuplicateEmailReturnsToEmailStep(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.RegisterUserFn = func(req models.SignupRequest) (*models.User, error) {
		return nil, &backend.APIError{StatusCode: 409, Message: "email already in use"}
	}

	data := map[string]string{
		dataFirstName:      "Grace",
		dataLastName:       "Hopper",
		dataEmail:          "grace@example.com",
		dataPhone:          "+15550002222",
		dataSignupPassword: "Secret1!",
	}
	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepSignupReview, data), textEvent("confirm"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepSignupEmail {
		t.Errorf("expected return to email step, got %s", next.Step)
	}
	if !strings.Contains(lastBody(t, svc), "already registered") {
		t.Errorf("expected duplicate-email message, got %q", lastBody(t, svc))
	}
}

func TestSignupRestartClearsDraft(t *testing.T) {
	engine, _, _ := newTestEngine()

	data := map[string]string{dataFirstName: "Grace", dataEmail: "grace@example.com"}
	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepSignupReview, data), textEvent("restart"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepSignupFirstName {
		t.Errorf("expected restart at first name, got %s", next.Step)
	}
	if len(next.Data) != 0 {
		t.Errorf("expected cleared draft, got %v", next.Data)
	}

	// Restarting again from the same review state lands in the same place.
	again, err := stepTurn(context.Background(), engine, sessionAt(models.StepSignupReview, data), textEvent("restart"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if again.Step != models.StepSignupFirstName || len(again.Data) != 0 {
		t.Errorf("expected idempotent restart, got step=%s data=%v", again.Step, again.Data)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.LoginFn = func(email, password string) (*models.User, error) {
		return nil, &backend.APIError{StatusCode: 401, Message: "invalid credentials"}
	}

	data := map[string]string{dataLoginEmail: "grace@example.com"}
	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLoginPassword, data), textEvent("Wrong1!pass"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepLoginEmail {
		t.Errorf("expected return to email entry, got %s", next.Step)
	}
	if !strings.Contains(lastBody(t, svc), "Incorrect email or password") {
		t.Errorf("expected credential message, got %q", lastBody(t, svc))
	}
}

func TestLoginSuccessRoutesByStatus(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.LoginFn = func(email, password string) (*models.User, error) {
		return &models.User{ID: "u1", FirstName: "Ada", Token: "tok-1", KYCStatus: models.KYCStatusApproved}, nil
	}

	data := map[string]string{dataLoginEmail: "ada@example.com"}
	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLoginPassword, data), textEvent("Secret1!"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepMainMenu {
		t.Errorf("expected main menu, got %s", next.Step)
	}
	if next.Get(dataLoginEmail) != "" {
		t.Error("expected login email cleared from data bag")
	}
	found := false
	for _, msg := range svc.Sent {
		if strings.Contains(msg.Body, "Welcome back, Ada") {
			found = true
		}
	}
	if !found {
		t.Error("expected welcome-back message")
	}
}

func TestLoginTransportFailureFallsBackWithApology(t *testing.T) {
	engine, gw, svc := newTestEngine()
	gw.LoginFn = func(email, password string) (*models.User, error) {
		return nil, &backend.APIError{StatusCode: 502, Message: "bad gateway"}
	}

	data := map[string]string{dataLoginEmail: "ada@example.com"}
	next, err := stepTurn(context.Background(), engine, sessionAt(models.StepLoginPassword, data), textEvent("Secret1!"))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.Step != models.StepMainMenu {
		t.Errorf("expected main menu fallback, got %s", next.Step)
	}
	if !strings.Contains(lastBody(t, svc), "Something went wrong") {
		t.Errorf("expected generic apology, got %q", lastBody(t, svc))
	}
}

func TestEveryKnownStepHasAHandler(t *testing.T) {
	engine, _, _ := newTestEngine()
	for _, step := range models.KnownSteps() {
		if _, ok := engine.handlers[step]; !ok {
			t.Errorf("step %s has no registered handler", step)
		}
	}
}
