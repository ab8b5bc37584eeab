package dialog

import (
	"context"

	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

const kycIntroPrompt = "🪪 Before you can trade, we need to verify your identity.\n\n" +
	"You'll be asked for your address, date of birth, and a photo of an identity document. " +
	"Reply \"begin\" when you're ready."

const kycCompletePrompt = "✅ That's everything!\n\n" +
	"By submitting you accept our client agreements and terms of service. " +
	"Reply \"submit\" to send your verification for review."

// handleKYCStart waits for explicit consent before the profile questions.
func (e *Engine) handleKYCStart(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadKYCStartBegin, "begin", "start", "yes", "ok":
		return stepResult{
			next:    models.StepKYCStreet,
			replies: []reply{text("What's your street address?")},
		}, nil
	default:
		return stay(t, text(kycIntroPrompt)), nil
	}
}

func (e *Engine) handleKYCStreet(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 5) {
		return stay(t, text("Please enter your full street address (at least 5 characters):")), nil
	}
	return stepResult{
		next:    models.StepKYCCity,
		patch:   map[string]string{dataStreet: t.text},
		replies: []reply{text("Which city do you live in?")},
	}, nil
}

func (e *Engine) handleKYCCity(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter your city (at least 2 characters):")), nil
	}
	return stepResult{
		next:    models.StepKYCPostalCode,
		patch:   map[string]string{dataCity: t.text},
		replies: []reply{text("What's your postal code?")},
	}, nil
}

func (e *Engine) handleKYCPostalCode(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter your postal code:")), nil
	}
	return stepResult{
		next:    models.StepKYCCountry,
		patch:   map[string]string{dataPostalCode: t.text},
		replies: []reply{text("Which country do you live in?")},
	}, nil
}

func (e *Engine) handleKYCCountry(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter your country (at least 2 characters):")), nil
	}
	return stepResult{
		next:    models.StepKYCDOB,
		patch:   map[string]string{dataCountry: t.text},
		replies: []reply{text("What's your date of birth? (MM/DD/YYYY)")},
	}, nil
}

func (e *Engine) handleKYCDOB(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.DateOfBirth(t.text) {
		return stay(t, text("That date doesn't look right. Please use MM/DD/YYYY, for example 04/23/1990:")), nil
	}
	return stepResult{
		next:  models.StepKYCUploadIdentity,
		patch: map[string]string{dataDOB: t.text},
		replies: []reply{text("📄 Please send a photo of your identity document " +
			"(passport, national ID, or driver's license).")},
	}, nil
}

// handleKYCUploadIdentity requires an attachment; text alone re-prompts.
func (e *Engine) handleKYCUploadIdentity(ctx context.Context, t *turn) (stepResult, error) {
	if !t.event.HasMedia() {
		return stay(t, text("I need a photo of your identity document to continue. Please send it as an attachment.")), nil
	}
	return stepResult{
		next: models.StepKYCUploadUtility,
		patch: map[string]string{
			dataIdentityPath:        t.event.MediaURL,
			dataIdentityContentType: t.event.MediaContentType,
		},
		replies: []reply{text("Got it! 📄 Now send a recent utility bill as proof of address, " +
			"or reply \"skip\" if you don't have one handy.")},
	}, nil
}

// handleKYCUploadUtility accepts an attachment or an explicit skip.
func (e *Engine) handleKYCUploadUtility(ctx context.Context, t *turn) (stepResult, error) {
	switch {
	case t.event.HasMedia():
		return stepResult{
			next:    models.StepKYCComplete,
			patch:   map[string]string{dataUtilityPath: t.event.MediaURL},
			replies: []reply{text(kycCompletePrompt)},
		}, nil
	case t.input == models.PayloadKYCUtilitySkip || t.input == "skip":
		return stepResult{
			next:    models.StepKYCComplete,
			replies: []reply{text(kycCompletePrompt)},
		}, nil
	default:
		return stay(t, text("Please send your utility bill as an attachment, or reply \"skip\".")), nil
	}
}

// handleKYCComplete submits the collected profile, documents, and accepted
// agreements in one pass. On upstream failure the draft stays intact so the
// user can simply submit again.
func (e *Engine) handleKYCComplete(ctx context.Context, t *turn) (stepResult, error) {
	if t.input != models.PayloadKYCCompleteSubmit && t.input != "submit" {
		return stay(t, text(kycCompletePrompt)), nil
	}

	token := t.data(dataToken)
	profile := models.IdentityProfile{
		Street:     t.data(dataStreet),
		City:       t.data(dataCity),
		PostalCode: t.data(dataPostalCode),
		Country:    t.data(dataCountry),
		DOB:        t.data(dataDOB),
	}

	agreements, err := e.backend.ListAgreements(ctx, token)
	if err != nil {
		return backendFailure(t, models.StepKYCComplete, err, "kyc agreements"), nil
	}
	agreementIDs := make([]string, 0, len(agreements))
	for _, a := range agreements {
		agreementIDs = append(agreementIDs, a.ID)
	}

	if err := e.backend.SubmitIdentityProfile(ctx, token, profile); err != nil {
		return backendFailure(t, models.StepKYCComplete, err, "kyc profile"), nil
	}

	completion := models.IdentityCompletion{
		Profile:      profile,
		IdentityPath: t.data(dataIdentityPath),
		UtilityPath:  t.data(dataUtilityPath),
		AgreementIDs: agreementIDs,
	}
	if err := e.backend.CompleteIdentityVerification(ctx, token, completion); err != nil {
		return backendFailure(t, models.StepKYCComplete, err, "kyc completion"), nil
	}

	return stepResult{
		next: models.StepMainMenu,
		patch: map[string]string{
			dataKYCStatus:           models.KYCStatusPending,
			dataStreet:              "",
			dataCity:                "",
			dataPostalCode:          "",
			dataCountry:             "",
			dataDOB:                 "",
			dataIdentityPath:        "",
			dataIdentityContentType: "",
			dataUtilityPath:         "",
		},
		replies: []reply{
			text("🎉 Thanks! Your identity verification has been submitted and is now under review. " +
				"We'll let you know as soon as it's approved."),
		},
	}, nil
}
