// Package models defines the button payload vocabulary for tradebot.
package models

// Button payloads are opaque tokens delivered when the user taps a
// predefined option. The engine matches them verbatim; any token outside
// this catalogue for the current step is invalid input, not a crash.
const (
	PayloadLanguageEnglish = "language_english"

	PayloadMainMenuLogin  = "main_menu_login_list"
	PayloadMainMenuSignup = "main_menu_signup_list"

	PayloadSignupReviewConfirm = "signup_review_confirm"
	PayloadSignupReviewRestart = "signup_review_restart"

	PayloadKYCStartBegin     = "kyc_start_begin"
	PayloadKYCUtilitySkip    = "kyc_utility_skip"
	PayloadKYCCompleteSubmit = "kyc_complete_submit"

	PayloadMenuDashboard     = "menu_list_dashboard"
	PayloadMenuReferAndEarn  = "menu_list_refer_and_earn"
	PayloadMenuHistory       = "menu_list_history"
	PayloadMenuHowToUse      = "menu_list_how_to_use"
	PayloadMenuSupport       = "menu_list_support"
	PayloadMenuViewAccount   = "menu_list_view_account"
	PayloadMenuCreateAccount = "menu_list_create_trading_account"
	PayloadMenuLogout        = "menu_list_logout"

	PayloadDashboardDeposit  = "dashboard_section_option_deposit"
	PayloadDashboardWithdraw = "dashboard_section_option_withdraw"
	PayloadDashboardTransfer = "dashboard_section_option_transfer"
	PayloadDashboardBack     = "dashboard_section_option_back"

	// Gateway selections append a normalized gateway name to these prefixes,
	// e.g. "dashboard_section_option_deposit_match2pay".
	PayloadDepositGatewayPrefix  = "dashboard_section_option_deposit_"
	PayloadWithdrawGatewayPrefix = "dashboard_section_option_withdraw_"

	PayloadTransferConfirm = "transfer_confirmation_confirm"
	PayloadTransferCancel  = "transfer_confirmation_cancel"

	PayloadAccountSectionDemo = "create_trading_account_section_demo"
	PayloadAccountSectionReal = "create_trading_account_section_real"

	PayloadAccountRealProductStandard = "create_trading_account_section_real_product_standard_account"
	PayloadAccountRealProductRaw      = "create_trading_account_section_real_product_raw_spread_account"
)

// Well-known payment gateway identifiers. The available set always comes
// from the backend; these two get dedicated post-amount steps on withdrawal.
const (
	GatewayMatch2Pay = "match2pay"
	GatewayWishmoney = "wishmoney"
)
