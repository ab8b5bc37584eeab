package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

// handleGreeting re-enters the flow from any step. The user is looked up by
// phone identifier; when found, a silent re-authentication branches on
// identity verification status, otherwise the conversation restarts at
// language selection.
func (e *Engine) handleGreeting(ctx context.Context, t *turn) (stepResult, error) {
	user, err := e.backend.FindUserByIdentifier(ctx, t.event.UserID)
	if err != nil || user == nil || user.Token == "" {
		if err != nil {
			slog.Debug("Engine greeting lookup failed, restarting at language selection", "error", err, "userID", t.event.UserID)
		}
		return stepResult{
			next:    models.StepLanguageSelection,
			reset:   true,
			replies: []reply{tmpl(messaging.TemplateLanguageSelection, nil)},
		}, nil
	}

	status := user.KYCStatus
	if status == "" {
		status, err = e.backend.CheckIdentityStatus(ctx, user.Token)
		if err != nil {
			slog.Warn("Engine greeting status check failed", "error", err, "userID", t.event.UserID)
			status = models.KYCStatusUnverified
		}
	}

	res := routeByKYCStatus(user, status)
	res.reset = true
	res.language = models.LanguageEnglish
	return res, nil
}

// handleLogout clears the session, deletes the backend's channel link, and
// restarts at language selection. Issued twice in a row it lands in the same
// place both times.
func (e *Engine) handleLogout(ctx context.Context, t *turn) (stepResult, error) {
	if userID := t.data(dataUserID); userID != "" {
		if err := e.backend.DeleteUser(ctx, userID); err != nil {
			slog.Warn("Engine logout backend delete failed", "error", err, "userID", t.event.UserID)
		}
	}
	return stepResult{
		next:  models.StepLanguageSelection,
		reset: true,
		replies: []reply{
			text("👋 You have been logged out. See you soon!"),
			tmpl(messaging.TemplateLanguageSelection, nil),
		},
	}, nil
}

// routeByKYCStatus places an authenticated user at the step matching their
// identity verification status.
func routeByKYCStatus(user *models.User, status string) stepResult {
	patch := map[string]string{
		dataToken:     user.Token,
		dataUserID:    user.ID,
		dataFirstName: user.FirstName,
		dataLastName:  user.LastName,
		dataEmail:     user.Email,
		dataKYCStatus: status,
	}

	switch status {
	case models.KYCStatusApproved:
		return stepResult{
			next:    models.StepMainMenu,
			patch:   patch,
			replies: []reply{tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(user.FirstName)})},
		}
	case models.KYCStatusPending:
		return stepResult{
			next:  models.StepMainMenu,
			patch: patch,
			replies: []reply{
				text("🕒 Your identity verification is under review. We'll notify you as soon as it's complete."),
				tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(user.FirstName)}),
			},
		}
	case models.KYCStatusRejected:
		return stepResult{
			next:  models.StepKYCStart,
			patch: patch,
			replies: []reply{
				text("❗ Your previous verification was not approved. Let's go through it again."),
				text(kycIntroPrompt),
			},
		}
	default:
		return stepResult{
			next:    models.StepKYCStart,
			patch:   patch,
			replies: []reply{text(kycIntroPrompt)},
		}
	}
}

func displayName(firstName string) string {
	if firstName == "" {
		return "there"
	}
	return firstName
}

// handleLanguageSelection accepts only English for now; anything else
// re-prompts.
func (e *Engine) handleLanguageSelection(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadLanguageEnglish, "english", "1":
		return stepResult{
			next:     models.StepMainMenu,
			language: models.LanguageEnglish,
			replies:  []reply{tmpl(messaging.TemplateAuthMenu, nil)},
		}, nil
	default:
		return stay(t,
			text("Sorry, only English is available right now."),
			tmpl(messaging.TemplateLanguageSelection, nil),
		), nil
	}
}

// handleMainMenu serves both the pre-auth menu (login/signup) and the
// logged-in menu, decided by token presence.
func (e *Engine) handleMainMenu(ctx context.Context, t *turn) (stepResult, error) {
	if t.data(dataToken) == "" {
		return e.handleAuthMenu(ctx, t)
	}
	return e.handleLoggedInMenu(ctx, t)
}

func (e *Engine) handleAuthMenu(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadMainMenuLogin, "login", "log in", "1":
		return stepResult{
			next:    models.StepLoginEmail,
			replies: []reply{text("Please enter your email address to log in:")},
		}, nil
	case models.PayloadMainMenuSignup, "signup", "sign up", "create an account", "2":
		return stepResult{
			next:     models.StepSignupFirstName,
			reset:    true,
			language: models.LanguageEnglish,
			replies:  []reply{text("Great, let's create your account! 🎉\nWhat's your first name?")},
		}, nil
	default:
		return stay(t,
			text("Sorry, I didn't understand that."),
			tmpl(messaging.TemplateAuthMenu, nil),
		), nil
	}
}

func (e *Engine) handleLoggedInMenu(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadMenuDashboard, "dashboard":
		return e.enterDashboard(ctx, t)
	case models.PayloadMenuReferAndEarn, "refer & earn", "refer and earn", "refer":
		return e.showReferralLink(ctx, t)
	case models.PayloadMenuHistory, "history", "transaction history":
		return e.showTransactionHistory(ctx, t)
	case models.PayloadMenuHowToUse, "how to use":
		return stay(t, tmpl(messaging.TemplateHowToUse, nil)), nil
	case models.PayloadMenuSupport, "support", "help":
		return stay(t, tmpl(messaging.TemplateSupport, nil)), nil
	case models.PayloadMenuViewAccount, "view account", "account":
		return e.showAccountProfile(ctx, t)
	case models.PayloadMenuCreateAccount, "create trading account":
		return stepResult{
			next: models.StepCreateTradingAccount,
			replies: []reply{text("🏦 What kind of trading account would you like?\n\n" +
				"1. Demo account (practice with virtual funds)\n" +
				"2. Real account (trade with real money)")},
		}, nil
	default:
		return stay(t,
			text("Sorry, I didn't understand that."),
			tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
		), nil
	}
}

// handleLoginEmail collects and validates the login email.
func (e *Engine) handleLoginEmail(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.Email(t.text) {
		return stay(t, text("That doesn't look like a valid email address. Please try again:")), nil
	}
	return stepResult{
		next:    models.StepLoginPassword,
		patch:   map[string]string{dataLoginEmail: t.text},
		replies: []reply{text("Thanks! Now enter your password:")},
	}, nil
}

// handleLoginPassword authenticates against the backend and branches on
// identity verification status.
func (e *Engine) handleLoginPassword(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 6) {
		return stay(t, text("Passwords are at least 6 characters. Please try again:")), nil
	}

	user, err := e.backend.Login(ctx, t.data(dataLoginEmail), t.text)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return stepResult{
				next:    models.StepLoginEmail,
				replies: []reply{text("❌ Incorrect email or password. Let's try again — please enter your email address:")},
			}, nil
		}
		return backendFailure(t, models.StepMainMenu, err, "login"), nil
	}

	status := user.KYCStatus
	if status == "" {
		status, err = e.backend.CheckIdentityStatus(ctx, user.Token)
		if err != nil {
			slog.Warn("Engine login status check failed", "error", err, "userID", t.event.UserID)
			status = models.KYCStatusUnverified
		}
	}

	res := routeByKYCStatus(user, status)
	res.patch[dataLoginEmail] = ""
	res.replies = append([]reply{text(fmt.Sprintf("✅ Welcome back, %s!", displayName(user.FirstName)))}, res.replies...)
	return res, nil
}
