// Package dialog implements the conversation state machine for tradebot.
//
// The Engine receives one inbound event plus an immutable session snapshot
// and computes the next session state and the outbound notifications for the
// turn. Step handlers are registered in a transition table keyed by step, so
// every reachable transition is enumerable and testable in isolation. The
// TurnHandler in turn.go owns session loading, persistence, per-user
// serialization, and the outermost failure guard.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
)

// fallbackReply is sent whenever a turn would otherwise produce no outbound
// notification, so no input in any step ever goes unanswered.
const fallbackReply = "Sorry, I didn't understand that. Reply \"menu\" to see your options."

// genericFailure is the apology shown when an upstream service fails and no
// safe domain message is available.
const genericFailure = "⚠️ Something went wrong on our side. Please try again in a moment."

// handlerFunc computes the outcome of one turn for a specific step. The turn
// snapshot is immutable; all changes are expressed through the returned
// stepResult.
type handlerFunc func(ctx context.Context, t *turn) (stepResult, error)

// turn is the immutable snapshot a handler works with.
type turn struct {
	session models.Session
	event   models.InboundEvent
	// input is the effective command token: the button payload when present,
	// otherwise the lower-cased trimmed text.
	input string
	// text is the raw trimmed text with case preserved, for fields where
	// case matters (names, passwords, addresses).
	text string
}

// data reads a value from the session's data bag.
func (t *turn) data(key string) string {
	return t.session.Get(key)
}

// reply is one outbound notification produced by a handler.
type reply struct {
	body       string
	template   messaging.TemplateKind
	params     map[string]string
	attachment string
}

func text(body string) reply {
	return reply{body: body}
}

func tmpl(kind messaging.TemplateKind, params map[string]string) reply {
	return reply{template: kind, params: params}
}

func attach(mediaURL, caption string) reply {
	return reply{attachment: mediaURL, body: caption}
}

// stepResult describes the complete outcome of one turn: the next step, the
// data-bag patch, and the outbound notifications. A patch value of ""
// deletes the key; reset clears the bag (and language) before the patch is
// applied.
type stepResult struct {
	next     models.Step
	patch    map[string]string
	reset    bool
	language string
	replies  []reply
}

// stay keeps the current step, typically with a corrective message.
func stay(t *turn, replies ...reply) stepResult {
	return stepResult{next: t.session.Step, replies: replies}
}

// Engine is the dialog engine. It depends on the backend gateway and the
// notifier through their capability interfaces so tests can substitute fakes.
type Engine struct {
	backend  backend.Gateway
	notifier messaging.Service
	handlers map[models.Step]handlerFunc
}

// NewEngine creates a dialog engine with the full step-handler table.
func NewEngine(gw backend.Gateway, notifier messaging.Service) *Engine {
	e := &Engine{backend: gw, notifier: notifier}
	e.handlers = map[models.Step]handlerFunc{
		models.StepLanguageSelection: e.handleLanguageSelection,
		models.StepMainMenu:          e.handleMainMenu,

		models.StepLoginEmail:    e.handleLoginEmail,
		models.StepLoginPassword: e.handleLoginPassword,

		models.StepSignupFirstName:       e.handleSignupFirstName,
		models.StepSignupLastName:        e.handleSignupLastName,
		models.StepSignupEmail:           e.handleSignupEmail,
		models.StepSignupPhone:           e.handleSignupPhone,
		models.StepSignupPassword:        e.handleSignupPassword,
		models.StepSignupConfirmPassword: e.handleSignupConfirmPassword,
		models.StepSignupReview:          e.handleSignupReview,

		models.StepKYCStart:          e.handleKYCStart,
		models.StepKYCStreet:         e.handleKYCStreet,
		models.StepKYCCity:           e.handleKYCCity,
		models.StepKYCPostalCode:     e.handleKYCPostalCode,
		models.StepKYCCountry:        e.handleKYCCountry,
		models.StepKYCDOB:            e.handleKYCDOB,
		models.StepKYCUploadIdentity: e.handleKYCUploadIdentity,
		models.StepKYCUploadUtility:  e.handleKYCUploadUtility,
		models.StepKYCComplete:       e.handleKYCComplete,

		models.StepDashboard: e.handleDashboard,

		models.StepDepositOptions: e.handleDepositOptions,
		models.StepDepositAmount:  e.handleDepositAmount,

		models.StepWithdrawOptions:          e.handleWithdrawOptions,
		models.StepWithdrawAmount:           e.handleWithdrawAmount,
		models.StepWithdrawMatch2PayAddress: e.handleWithdrawMatch2PayAddress,
		models.StepWithdrawWishmoneyPhone:   e.handleWithdrawWishmoneyPhone,

		models.StepTransferSelectSource:      e.handleTransferSelectSource,
		models.StepTransferSelectDestination: e.handleTransferSelectDestination,
		models.StepTransferAmount:            e.handleTransferAmount,
		models.StepTransferConfirmation:      e.handleTransferConfirmation,

		models.StepCreateTradingAccount: e.handleCreateTradingAccount,
		models.StepAccountDemoName:      e.handleAccountDemoName,
		models.StepAccountDemoBalance:   e.handleAccountDemoBalance,
		models.StepAccountRealName:      e.handleAccountRealName,
		models.StepAccountRealProduct:   e.handleAccountRealProduct,
	}
	return e
}

// normalizeInput computes the effective command token: button payloads take
// precedence over free text.
func normalizeInput(event models.InboundEvent) string {
	if event.ButtonPayload != "" {
		return event.ButtonPayload
	}
	return strings.ToLower(strings.TrimSpace(event.Text))
}

var greetingTokens = map[string]bool{
	"hi": true, "hello": true, "hey": true, "menu": true, "main menu": true,
	"start": true, "get started": true, "home": true,
}

var logoutTokens = map[string]bool{
	"logout": true, "log out": true, "signout": true, "sign out": true,
	models.PayloadMenuLogout: true,
}

// Step runs one turn of the dialog: it dispatches the event against global
// overrides and the current step's handler and returns the next session
// state together with the turn's notifications. The caller delivers them
// with deliver once the new state is safely persisted, so the user is never
// told about a transition that was not recorded. Errors escaping here are
// unexpected by contract and are handled by the TurnHandler guard.
func (e *Engine) Step(ctx context.Context, session models.Session, event models.InboundEvent) (models.Session, []reply, error) {
	t := &turn{
		session: session.Clone(),
		event:   event,
		input:   normalizeInput(event),
		text:    strings.TrimSpace(event.Text),
	}

	slog.Debug("Engine step dispatch", "userID", session.UserID, "step", session.Step, "input_length", len(t.input))

	var res stepResult
	var err error
	switch {
	case greetingTokens[t.input]:
		res, err = e.handleGreeting(ctx, t)
	case logoutTokens[t.input]:
		res, err = e.handleLogout(ctx, t)
	default:
		handler, ok := e.handlers[session.Step]
		if !ok {
			// Unrecognized persisted step: attempt the silent re-auth
			// fallback so the conversation never dead-ends.
			slog.Warn("Engine encountered unknown step, falling back", "userID", session.UserID, "step", session.Step)
			res, err = e.handleGreeting(ctx, t)
		} else {
			res, err = handler(ctx, t)
		}
	}
	if err != nil {
		return session, nil, fmt.Errorf("step %s handler failed: %w", session.Step, err)
	}

	next := applyResult(t.session, res)
	if !models.KnownStep(next.Step) {
		slog.Error("Engine produced unknown step, forcing main menu", "userID", session.UserID, "step", next.Step)
		next.Step = models.StepMainMenu
	}

	return next, res.replies, nil
}

// applyResult builds the next session from the snapshot and the handler's
// result. The snapshot itself is never mutated before this point.
func applyResult(session models.Session, res stepResult) models.Session {
	next := session.Clone()
	if res.reset {
		next.Data = make(map[string]string)
		next.Language = ""
	}
	if res.language != "" {
		next.Language = res.language
	}
	for key, value := range res.patch {
		if value == "" {
			delete(next.Data, key)
		} else {
			next.Data[key] = value
		}
	}
	if res.next != "" {
		next.Step = res.next
	}
	return next
}

// deliver sends the turn's notifications in order. A turn with no replies
// still answers with the generic fallback so the conversation never goes
// silent. Send failures are logged and do not abort the turn: the state
// transition is already persisted by the time delivery starts.
func (e *Engine) deliver(ctx context.Context, userID string, replies []reply) {
	if len(replies) == 0 {
		replies = []reply{text(fallbackReply)}
	}
	for _, r := range replies {
		var err error
		switch {
		case r.attachment != "":
			err = e.notifier.SendAttachment(ctx, userID, r.attachment, r.body)
		case r.template != "":
			err = e.notifier.SendTemplate(ctx, userID, r.template, r.params)
		default:
			err = e.notifier.SendText(ctx, userID, r.body)
		}
		if err != nil {
			slog.Error("Engine failed to deliver notification", "error", err, "userID", userID)
		}
	}
}

// backendFailure converts an upstream error into a safe fallback result:
// known domain conflicts surface the upstream message, everything else gets
// the generic apology. The user lands on fallbackStep.
func backendFailure(t *turn, fallbackStep models.Step, err error, context string) stepResult {
	slog.Error("Engine backend call failed", "error", err, "userID", t.session.UserID, "step", t.session.Step, "context", context)
	msg := genericFailure
	if upstream := backend.UserMessage(err); upstream != "" && (backend.IsConflict(err) || backend.IsUnauthorized(err)) {
		msg = "⚠️ " + upstream
	}
	return stepResult{next: fallbackStep, replies: []reply{text(msg)}}
}
