package messaging

import (
	"fmt"
	"strings"
)

// TemplateKind names a predefined outbound message template.
type TemplateKind string

// The template catalogue. Params referenced as {{name}} are substituted at
// render time; unresolved placeholders are an error so a missing param never
// reaches the user.
const (
	TemplateLanguageSelection TemplateKind = "language_selection"
	TemplateAuthMenu          TemplateKind = "auth_menu"
	TemplateMainMenu          TemplateKind = "main_menu"
	TemplateDashboardSummary  TemplateKind = "dashboard_summary"
	TemplateDepositResult     TemplateKind = "deposit_result"
	TemplateSupport           TemplateKind = "support"
	TemplateHowToUse          TemplateKind = "how_to_use"
)

var templateBodies = map[TemplateKind]string{
	TemplateLanguageSelection: "👋 Welcome to Atlas Markets!\nPlease choose your language to continue:\n1. English\n(Tap the button or reply \"english\")",

	TemplateAuthMenu: "Welcome to Atlas Markets! How would you like to continue?\n\n1. Log in\n2. Create an account\n\nTap a button or reply with \"login\" or \"signup\".",

	TemplateMainMenu: "Hi {{firstName}}! What would you like to do?\n\n" +
		"📊 Dashboard\n🏦 Create trading account\n🎁 Refer & earn\n📜 Transaction history\n👤 View account\nℹ️ How to use\n🛟 Support\n🚪 Log out",

	TemplateDashboardSummary: "📊 Your dashboard\n\n{{summary}}\nWhat next?\n\n💰 Deposit\n💸 Withdraw\n🔁 Transfer\n⬅️ Back to menu",

	TemplateDepositResult: "✅ Deposit created!\n\n{{details}}",

	TemplateSupport: "🛟 Our support team is here for you.\nEmail: support@atlasmarkets.example\nHours: 24/5 (Mon–Fri)\n\nReply \"menu\" anytime to return to the main menu.",

	TemplateHowToUse: "ℹ️ How to use this service:\n" +
		"• Reply \"menu\" anytime to see your options\n" +
		"• Use the buttons under each message to navigate\n" +
		"• Deposit, withdraw, and transfer straight from your dashboard\n" +
		"• Reply \"logout\" to end your session",
}

// RenderTemplate renders the named template, substituting {{param}} markers.
func RenderTemplate(kind TemplateKind, params map[string]string) (string, error) {
	body, ok := templateBodies[kind]
	if !ok {
		return "", fmt.Errorf("unknown message template %q", kind)
	}
	for key, value := range params {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}
	if strings.Contains(body, "{{") {
		return "", fmt.Errorf("template %q has unresolved parameters", kind)
	}
	return body, nil
}
