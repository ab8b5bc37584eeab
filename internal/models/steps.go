// Package models defines the conversation step catalogue for tradebot.
package models

// Step names exactly one point in the conversation state machine.
type Step string

// The closed set of conversation steps. The dialog engine never persists a
// step outside this catalogue.
const (
	StepLanguageSelection Step = "language-selection"
	StepMainMenu          Step = "main-menu"

	StepLoginEmail    Step = "login-email"
	StepLoginPassword Step = "login-password"

	StepSignupFirstName       Step = "signup-firstname"
	StepSignupLastName        Step = "signup-lastname"
	StepSignupEmail           Step = "signup-email"
	StepSignupPhone           Step = "signup-phone"
	StepSignupPassword        Step = "signup-password"
	StepSignupConfirmPassword Step = "signup-confirm-password"
	StepSignupReview          Step = "signup-review"

	StepKYCStart          Step = "kyc-start"
	StepKYCStreet         Step = "kyc-street"
	StepKYCCity           Step = "kyc-city"
	StepKYCPostalCode     Step = "kyc-postal-code"
	StepKYCCountry        Step = "kyc-country"
	StepKYCDOB            Step = "kyc-dob"
	StepKYCUploadIdentity Step = "kyc-upload-identity"
	StepKYCUploadUtility  Step = "kyc-upload-utility"
	StepKYCComplete       Step = "kyc-complete"

	StepDashboard Step = "dashboard"

	StepDepositOptions Step = "dashboard-deposit-options"
	StepDepositAmount  Step = "dashboard-deposit-amount"

	StepWithdrawOptions          Step = "dashboard-withdraw-options"
	StepWithdrawAmount           Step = "dashboard-withdraw-amount"
	StepWithdrawMatch2PayAddress Step = "dashboard-withdraw-match2pay-address"
	StepWithdrawWishmoneyPhone   Step = "dashboard-withdraw-wishmoney-phone"

	StepTransferSelectSource      Step = "dashboard-transfer-select-source"
	StepTransferSelectDestination Step = "dashboard-transfer-select-destination"
	StepTransferAmount            Step = "dashboard-transfer-amount"
	StepTransferConfirmation      Step = "dashboard-transfer-confirmation"

	StepCreateTradingAccount Step = "create-trading-account"
	StepAccountDemoName      Step = "account-create-demo-name"
	StepAccountDemoBalance   Step = "account-create-demo-balance"
	StepAccountRealName      Step = "account-create-real-name"
	StepAccountRealProduct   Step = "account-create-real-product"
)

// knownSteps enumerates every step the engine may persist.
var knownSteps = map[Step]bool{
	StepLanguageSelection: true,
	StepMainMenu:          true,

	StepLoginEmail:    true,
	StepLoginPassword: true,

	StepSignupFirstName:       true,
	StepSignupLastName:        true,
	StepSignupEmail:           true,
	StepSignupPhone:           true,
	StepSignupPassword:        true,
	StepSignupConfirmPassword: true,
	StepSignupReview:          true,

	StepKYCStart:          true,
	StepKYCStreet:         true,
	StepKYCCity:           true,
	StepKYCPostalCode:     true,
	StepKYCCountry:        true,
	StepKYCDOB:            true,
	StepKYCUploadIdentity: true,
	StepKYCUploadUtility:  true,
	StepKYCComplete:       true,

	StepDashboard: true,

	StepDepositOptions: true,
	StepDepositAmount:  true,

	StepWithdrawOptions:          true,
	StepWithdrawAmount:           true,
	StepWithdrawMatch2PayAddress: true,
	StepWithdrawWishmoneyPhone:   true,

	StepTransferSelectSource:      true,
	StepTransferSelectDestination: true,
	StepTransferAmount:            true,
	StepTransferConfirmation:      true,

	StepCreateTradingAccount: true,
	StepAccountDemoName:      true,
	StepAccountDemoBalance:   true,
	StepAccountRealName:      true,
	StepAccountRealProduct:   true,
}

// KnownStep reports whether s is a member of the closed step catalogue.
func KnownStep(s Step) bool {
	return knownSteps[s]
}

// KnownSteps returns the full step catalogue (for tests and diagnostics).
func KnownSteps() []Step {
	out := make([]Step, 0, len(knownSteps))
	for s := range knownSteps {
		out = append(out, s)
	}
	return out
}
