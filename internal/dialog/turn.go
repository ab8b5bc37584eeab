package dialog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/store"
)

// TurnHandler owns the outer loop of a turn: loading the session, running the
// engine, and persisting the result exactly once. Turns for the same user are
// serialized with a per-user mutex so rapid consecutive messages apply in
// arrival order instead of racing on the same snapshot.
type TurnHandler struct {
	engine   *Engine
	store    store.Store
	notifier messaging.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTurnHandler creates a turn handler around an engine and a session store.
func NewTurnHandler(engine *Engine, st store.Store, notifier messaging.Service) *TurnHandler {
	return &TurnHandler{
		engine:   engine,
		store:    st,
		notifier: notifier,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (h *TurnHandler) userLock(userID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[userID] = lock
	}
	return lock
}

// HandleEvent processes one inbound event end to end. A first contact creates
// the session and sends the language prompt without running the engine; every
// later turn runs the engine, persists the resulting session once, and only
// then delivers the turn's replies.
func (h *TurnHandler) HandleEvent(ctx context.Context, event models.InboundEvent) {
	lock := h.userLock(event.UserID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("TurnHandler recovered from panic", "panic", r, "userID", event.UserID)
			if sendErr := h.notifier.SendText(ctx, event.UserID, genericFailure); sendErr != nil {
				slog.Error("TurnHandler failed to send failure notice", "error", sendErr, "userID", event.UserID)
			}
			h.recoverSession(ctx, event.UserID)
		}
	}()

	session, err := h.store.GetSession(event.UserID)
	if err != nil {
		slog.Error("TurnHandler failed to load session", "error", err, "userID", event.UserID)
		if sendErr := h.notifier.SendText(ctx, event.UserID, genericFailure); sendErr != nil {
			slog.Error("TurnHandler failed to send failure notice", "error", sendErr, "userID", event.UserID)
		}
		return
	}

	if session == nil {
		fresh := models.NewSession(event.UserID)
		if err := h.store.SaveSession(fresh); err != nil {
			slog.Error("TurnHandler failed to persist new session", "error", err, "userID", event.UserID)
		}
		if err := h.notifier.SendTemplate(ctx, event.UserID, messaging.TemplateLanguageSelection, nil); err != nil {
			slog.Error("TurnHandler failed to send welcome", "error", err, "userID", event.UserID)
		}
		return
	}

	next, replies, err := h.engine.Step(ctx, *session, event)
	if err != nil {
		slog.Error("TurnHandler engine step failed", "error", err, "userID", event.UserID, "step", session.Step)
		if sendErr := h.notifier.SendText(ctx, event.UserID, genericFailure); sendErr != nil {
			slog.Error("TurnHandler failed to send failure notice", "error", sendErr, "userID", event.UserID)
		}
		h.recoverSession(ctx, event.UserID)
		return
	}

	next.UpdatedAt = time.Now()
	if err := h.store.SaveSession(next); err != nil {
		// Never announce a transition that was not recorded: the user gets the
		// apology, retries, and replays the step from the last saved state.
		slog.Error("TurnHandler failed to persist session", "error", err, "userID", event.UserID, "step", next.Step)
		if sendErr := h.notifier.SendText(ctx, event.UserID, genericFailure); sendErr != nil {
			slog.Error("TurnHandler failed to send failure notice", "error", sendErr, "userID", event.UserID)
		}
		return
	}

	h.engine.deliver(ctx, event.UserID, replies)
}

// recoverSession forces a known-good resting state after a handler blew up,
// so the next message lands in the main menu instead of replaying the crash.
func (h *TurnHandler) recoverSession(ctx context.Context, userID string) {
	session, err := h.store.GetSession(userID)
	if err != nil || session == nil {
		return
	}
	session.Step = models.StepMainMenu
	session.UpdatedAt = time.Now()
	if err := h.store.SaveSession(*session); err != nil {
		slog.Error("TurnHandler failed to persist recovery state", "error", err, "userID", userID)
	}
}

// Run consumes inbound events from the messaging service until the context
// is cancelled or the event channel closes.
func (h *TurnHandler) Run(ctx context.Context) {
	events := h.notifier.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.HandleEvent(ctx, event)
		}
	}
}
