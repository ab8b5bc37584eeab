package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/store"
)

func newTestTurnHandler() (*TurnHandler, *backend.MockGateway, *messaging.MockService, *store.InMemoryStore) {
	gw := backend.NewMockGateway()
	svc := messaging.NewMockService()
	st := store.NewInMemoryStore()
	engine := NewEngine(gw, svc)
	return NewTurnHandler(engine, st, svc), gw, svc, st
}

func TestFirstContactCreatesSessionAndSendsWelcome(t *testing.T) {
	handler, _, svc, st := newTestTurnHandler()

	handler.HandleEvent(context.Background(), textEvent("hi"))

	session, err := st.GetSession(testUserID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session == nil {
		t.Fatal("expected session created on first contact")
	}
	if session.Step != models.StepLanguageSelection {
		t.Errorf("expected language selection, got %s", session.Step)
	}
	if svc.MessageCount() != 1 {
		t.Fatalf("expected exactly one welcome message, got %d", svc.MessageCount())
	}
	if !strings.Contains(lastBody(t, svc), "choose your language") {
		t.Errorf("expected language prompt, got %q", lastBody(t, svc))
	}
}

func TestSecondEventRunsEngineAndPersistsResult(t *testing.T) {
	handler, _, _, st := newTestTurnHandler()

	ctx := context.Background()
	handler.HandleEvent(ctx, textEvent("hi"))
	handler.HandleEvent(ctx, textEvent("english"))

	session, err := st.GetSession(testUserID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session == nil || session.Step != models.StepMainMenu {
		t.Fatalf("expected persisted main menu, got %+v", session)
	}
}

func TestConsecutiveEventsApplyInOrder(t *testing.T) {
	handler, gw, _, st := newTestTurnHandler()
	gw.RegisterUserFn = func(req models.SignupRequest) (*models.User, error) {
		return &models.User{ID: "u-new", FirstName: req.FirstName, Token: "tok-new"}, nil
	}

	ctx := context.Background()
	inputs := []string{"hi", "english", "signup", "Grace", "Hopper", "grace@example.com", "+15550002222", "Secret1!", "Secret1!", "confirm"}
	for _, input := range inputs {
		handler.HandleEvent(ctx, textEvent(input))
	}

	session, err := st.GetSession(testUserID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session == nil || session.Step != models.StepKYCStart {
		t.Fatalf("expected verification start after full signup, got %+v", session)
	}
	if gw.CallCount("RegisterUser") != 1 {
		t.Errorf("expected one registration, got %d", gw.CallCount("RegisterUser"))
	}
}

func TestPanicInHandlerRecoversToMainMenu(t *testing.T) {
	handler, _, svc, st := newTestTurnHandler()
	handler.engine.handlers[models.StepMainMenu] = func(ctx context.Context, tr *turn) (stepResult, error) {
		panic("boom")
	}

	session := models.NewSession(testUserID)
	session.Step = models.StepMainMenu
	session.Data = map[string]string{dataToken: "tok"}
	if err := st.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	handler.HandleEvent(context.Background(), textEvent("dashboard"))

	if svc.MessageCount() < 1 {
		t.Fatal("expected an apology after the panic, got no outbound messages")
	}
	if !strings.Contains(lastBody(t, svc), "Something went wrong") {
		t.Errorf("expected generic apology, got %q", lastBody(t, svc))
	}
	after, err := st.GetSession(testUserID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if after == nil || after.Step != models.StepMainMenu {
		t.Fatalf("expected recovery to main menu, got %+v", after)
	}
}

// failingSaveStore rejects saves on demand to exercise the persistence-failure
// path of a turn.
type failingSaveStore struct {
	store.Store
	fail bool
}

func (s *failingSaveStore) SaveSession(session models.Session) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.SaveSession(session)
}

func TestFailedSaveSendsApologyInsteadOfReplies(t *testing.T) {
	gw := backend.NewMockGateway()
	svc := messaging.NewMockService()
	inner := store.NewInMemoryStore()
	st := &failingSaveStore{Store: inner}
	handler := NewTurnHandler(NewEngine(gw, svc), st, svc)

	session := models.NewSession(testUserID)
	session.Step = models.StepLanguageSelection
	if err := inner.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	st.fail = true
	handler.HandleEvent(context.Background(), textEvent("english"))

	if svc.MessageCount() != 1 {
		t.Fatalf("expected only the apology, got %d messages", svc.MessageCount())
	}
	if !strings.Contains(lastBody(t, svc), "Something went wrong") {
		t.Errorf("expected generic apology, got %q", lastBody(t, svc))
	}

	after, err := inner.GetSession(testUserID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if after == nil || after.Step != models.StepLanguageSelection {
		t.Fatalf("expected the persisted step to be unchanged, got %+v", after)
	}
}
