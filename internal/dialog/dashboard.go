package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
)

// enterDashboard fetches the wallet and account balances and shows the
// dashboard section. On upstream failure the user stays on the main menu with
// an apology rather than entering a dashboard with stale numbers.
func (e *Engine) enterDashboard(ctx context.Context, t *turn) (stepResult, error) {
	token := t.data(dataToken)

	wallets, err := e.backend.ListWallets(ctx, token)
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "dashboard wallets"), nil
	}
	realAccounts, err := e.backend.ListAccounts(ctx, token, models.AccountKindReal)
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "dashboard accounts"), nil
	}
	demoAccounts, err := e.backend.ListAccounts(ctx, token, models.AccountKindDemo)
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "dashboard accounts"), nil
	}

	var b strings.Builder
	walletID := ""
	if len(wallets) == 0 {
		b.WriteString("💼 Wallet: none yet\n")
	} else {
		walletID = wallets[0].ID
		for _, w := range wallets {
			fmt.Fprintf(&b, "💼 Wallet: %.2f %s\n", w.Balance, w.Currency)
		}
	}
	if len(realAccounts) > 0 {
		b.WriteString("\n📈 Real accounts:\n")
		for _, a := range realAccounts {
			fmt.Fprintf(&b, "  • %s — %.2f %s\n", accountLabel(a), a.Balance, a.Currency)
		}
	}
	if len(demoAccounts) > 0 {
		b.WriteString("\n🧪 Demo accounts:\n")
		for _, a := range demoAccounts {
			fmt.Fprintf(&b, "  • %s — %.2f %s\n", accountLabel(a), a.Balance, a.Currency)
		}
	}

	return stepResult{
		next:    models.StepDashboard,
		patch:   map[string]string{dataWalletID: walletID},
		replies: []reply{tmpl(messaging.TemplateDashboardSummary, map[string]string{"summary": strings.TrimRight(b.String(), "\n")})},
	}, nil
}

func accountLabel(a models.Account) string {
	if a.Number != "" {
		return fmt.Sprintf("%s (%s)", a.Name, a.Number)
	}
	return a.Name
}

// handleDashboard dispatches the dashboard section options: deposit,
// withdraw, transfer, or back to the main menu.
func (e *Engine) handleDashboard(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadDashboardDeposit, "deposit":
		return e.startGatewaySelection(ctx, t, models.StepDepositOptions, "deposit")
	case models.PayloadDashboardWithdraw, "withdraw":
		return e.startGatewaySelection(ctx, t, models.StepWithdrawOptions, "withdraw")
	case models.PayloadDashboardTransfer, "transfer":
		return e.startTransfer(ctx, t)
	case models.PayloadDashboardBack, "back":
		return stepResult{
			next:    models.StepMainMenu,
			replies: []reply{tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))})},
		}, nil
	default:
		return stay(t, text("Please choose deposit, withdraw, transfer, or back.")), nil
	}
}

// startGatewaySelection lists the currently enabled payment gateways and
// records them in the draft; the follow-up step only accepts one of these.
func (e *Engine) startGatewaySelection(ctx context.Context, t *turn, next models.Step, verb string) (stepResult, error) {
	gateways, err := e.backend.ListPaymentGateways(ctx, t.data(dataToken))
	if err != nil {
		return backendFailure(t, models.StepDashboard, err, verb+" gateways"), nil
	}
	if len(gateways) == 0 {
		return stay(t, text("😕 No payment methods are available right now. Please try again later.")), nil
	}

	names := make([]string, 0, len(gateways))
	var b strings.Builder
	fmt.Fprintf(&b, "How would you like to %s?\n\n", verb)
	for i, g := range gateways {
		names = append(names, normalizeGatewayName(g.Name))
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Name)
	}
	b.WriteString("\nReply with the payment method name.")

	return stepResult{
		next: next,
		patch: map[string]string{
			dataAvailableGateways: strings.Join(names, ","),
			dataSelectedGateway:   "",
		},
		replies: []reply{text(b.String())},
	}, nil
}

func normalizeGatewayName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// matchGateway resolves the user's input against the recorded gateway draft,
// accepting either the button payload (prefix + name) or a typed name.
func matchGateway(t *turn, payloadPrefix string) (string, bool) {
	available := strings.Split(t.data(dataAvailableGateways), ",")
	candidate := t.input
	candidate = strings.TrimPrefix(candidate, payloadPrefix)
	candidate = normalizeGatewayName(candidate)
	for _, name := range available {
		if name != "" && name == candidate {
			return name, true
		}
	}
	return "", false
}

// showReferralLink sends the user's referral link; the menu step is kept.
func (e *Engine) showReferralLink(ctx context.Context, t *turn) (stepResult, error) {
	link, err := e.backend.GetReferralLink(ctx, t.data(dataToken))
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "referral link"), nil
	}
	return stay(t, text(fmt.Sprintf("🎁 Share your referral link and earn rewards:\n\n%s", link))), nil
}

// showTransactionHistory renders the most recent transactions.
func (e *Engine) showTransactionHistory(ctx context.Context, t *turn) (stepResult, error) {
	entries, err := e.backend.GetTransactionHistory(ctx, t.data(dataToken))
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "transaction history"), nil
	}
	if len(entries) == 0 {
		return stay(t, text("📭 You don't have any transactions yet.")), nil
	}

	var b strings.Builder
	b.WriteString("🧾 Your recent transactions:\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "%s  %s %.2f %s — %s\n",
			entry.CreatedAt.Format("2006-01-02"), entry.Type, entry.Amount, entry.Currency, entry.Status)
	}
	return stay(t, text(strings.TrimRight(b.String(), "\n"))), nil
}

// showAccountProfile renders the profile details cached at login.
func (e *Engine) showAccountProfile(ctx context.Context, t *turn) (stepResult, error) {
	return stay(t, text(fmt.Sprintf("👤 Your account:\n\nName: %s %s\nEmail: %s\nVerification: %s",
		t.data(dataFirstName), t.data(dataLastName), t.data(dataEmail), t.data(dataKYCStatus)))), nil
}
