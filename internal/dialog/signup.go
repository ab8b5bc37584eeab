package dialog

import (
	"context"
	"fmt"

	"github.com/atlasmarkets/tradebot/internal/backend"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

const passwordRules = "at least 6 characters, one uppercase letter, one number, and one special character (!@#$&*)"

// handleSignupFirstName collects the first name.
func (e *Engine) handleSignupFirstName(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter a first name with at least 2 characters:")), nil
	}
	return stepResult{
		next:    models.StepSignupLastName,
		patch:   map[string]string{dataFirstName: t.text},
		replies: []reply{text(fmt.Sprintf("Nice to meet you, %s! What's your last name?", t.text))},
	}, nil
}

// handleSignupLastName collects the last name.
func (e *Engine) handleSignupLastName(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter a last name with at least 2 characters:")), nil
	}
	return stepResult{
		next:    models.StepSignupEmail,
		patch:   map[string]string{dataLastName: t.text},
		replies: []reply{text("What's your email address?")},
	}, nil
}

// handleSignupEmail collects and validates the email.
func (e *Engine) handleSignupEmail(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.Email(t.text) {
		return stay(t, text("That doesn't look like a valid email address. Please try again:")), nil
	}
	return stepResult{
		next:    models.StepSignupPhone,
		patch:   map[string]string{dataEmail: t.text},
		replies: []reply{text("What's your phone number? (include your country code)")},
	}, nil
}

// handleSignupPhone collects and validates the phone number.
func (e *Engine) handleSignupPhone(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.Phone(t.text) {
		return stay(t, text("That phone number looks too short. Please enter at least 6 digits:")), nil
	}
	return stepResult{
		next:    models.StepSignupPassword,
		patch:   map[string]string{dataPhone: t.text},
		replies: []reply{text("Choose a password (" + passwordRules + "):")},
	}, nil
}

// handleSignupPassword enforces the password policy.
func (e *Engine) handleSignupPassword(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.Password(t.event.Text) {
		return stay(t, text("That password is too weak. It needs "+passwordRules+". Please try again:")), nil
	}
	return stepResult{
		next:    models.StepSignupConfirmPassword,
		patch:   map[string]string{dataSignupPassword: t.event.Text},
		replies: []reply{text("Please type your password once more to confirm:")},
	}, nil
}

// handleSignupConfirmPassword requires an exact match with the first entry.
func (e *Engine) handleSignupConfirmPassword(ctx context.Context, t *turn) (stepResult, error) {
	if t.event.Text != t.data(dataSignupPassword) {
		return stay(t, text("Those passwords don't match. Please type your password again:")), nil
	}
	return stepResult{
		next:    models.StepSignupReview,
		replies: []reply{text(signupReviewSummary(t))},
	}, nil
}

func signupReviewSummary(t *turn) string {
	return fmt.Sprintf("📋 Please review your details:\n\n"+
		"Name: %s %s\nEmail: %s\nPhone: %s\n\n"+
		"Reply \"confirm\" to create your account or \"restart\" to start over.",
		t.data(dataFirstName), t.data(dataLastName), t.data(dataEmail), t.data(dataPhone))
}

// handleSignupReview submits the draft on confirm or clears it on restart.
// A duplicate email surfaces as a distinct message with a chance to re-enter
// just the email.
func (e *Engine) handleSignupReview(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadSignupReviewConfirm, "confirm":
		req := models.SignupRequest{
			FirstName: t.data(dataFirstName),
			LastName:  t.data(dataLastName),
			Email:     t.data(dataEmail),
			Phone:     t.data(dataPhone),
			Password:  t.data(dataSignupPassword),
		}
		user, err := e.backend.RegisterUser(ctx, req)
		if err != nil {
			if backend.IsConflict(err) {
				return stepResult{
					next:    models.StepSignupEmail,
					replies: []reply{text("📧 That email address is already registered. Please enter a different email:")},
				}, nil
			}
			return backendFailure(t, models.StepSignupReview, err, "signup"), nil
		}

		status := user.KYCStatus
		if status == "" {
			status = models.KYCStatusUnverified
		}
		res := routeByKYCStatus(user, status)
		res.patch[dataSignupPassword] = ""
		res.replies = append([]reply{text("🎉 Your account has been created!")}, res.replies...)
		return res, nil

	case models.PayloadSignupReviewRestart, "restart":
		return stepResult{
			next:     models.StepSignupFirstName,
			reset:    true,
			language: models.LanguageEnglish,
			replies:  []reply{text("No problem, let's start over. What's your first name?")},
		}, nil

	default:
		return stay(t, text(signupReviewSummary(t))), nil
	}
}
