package dialog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

// handleWithdrawOptions resolves the chosen payout gateway.
func (e *Engine) handleWithdrawOptions(ctx context.Context, t *turn) (stepResult, error) {
	gateway, ok := matchGateway(t, models.PayloadWithdrawGatewayPrefix)
	if !ok {
		return stay(t, text("Please choose one of the listed payout methods.")), nil
	}
	return stepResult{
		next:    models.StepWithdrawAmount,
		patch:   map[string]string{dataSelectedGateway: gateway},
		replies: []reply{text(fmt.Sprintf("How much would you like to withdraw? (minimum %d USD)", minTransactionAmount))},
	}, nil
}

// handleWithdrawAmount validates the amount, then branches on the selected
// gateway: crypto payouts need a wallet address, wishmoney needs a payout
// phone, everything else executes immediately.
func (e *Engine) handleWithdrawAmount(ctx context.Context, t *turn) (stepResult, error) {
	amount, ok := validate.Amount(t.text)
	if !ok || amount < minTransactionAmount {
		return stay(t, text(fmt.Sprintf("Please enter an amount of at least %d USD:", minTransactionAmount))), nil
	}

	patch := map[string]string{dataWithdrawAmount: strconv.FormatFloat(amount, 'f', 2, 64)}
	switch t.data(dataSelectedGateway) {
	case models.GatewayMatch2Pay:
		return stepResult{
			next:    models.StepWithdrawMatch2PayAddress,
			patch:   patch,
			replies: []reply{text("What's the crypto wallet address the funds should go to?")},
		}, nil
	case models.GatewayWishmoney:
		return stepResult{
			next:    models.StepWithdrawWishmoneyPhone,
			patch:   patch,
			replies: []reply{text("What's the phone number linked to your Wishmoney account?")},
		}, nil
	default:
		return e.executeWithdraw(ctx, t, amount, nil)
	}
}

// handleWithdrawMatch2PayAddress collects the payout wallet address.
func (e *Engine) handleWithdrawMatch2PayAddress(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 5) {
		return stay(t, text("That address looks too short. Please enter the full wallet address:")), nil
	}
	amount, _ := validate.Amount(t.data(dataWithdrawAmount))
	return e.executeWithdraw(ctx, t, amount, map[string]string{"address": t.text})
}

// handleWithdrawWishmoneyPhone collects the payout phone number.
func (e *Engine) handleWithdrawWishmoneyPhone(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 4) {
		return stay(t, text("That phone number looks too short. Please try again:")), nil
	}
	amount, _ := validate.Amount(t.data(dataWithdrawAmount))
	return e.executeWithdraw(ctx, t, amount, map[string]string{"phone": t.text})
}

// executeWithdraw submits the withdrawal. On failure the user returns to the
// payout method selection so a different gateway can be tried.
func (e *Engine) executeWithdraw(ctx context.Context, t *turn, amount float64, extra map[string]string) (stepResult, error) {
	req := models.TransactionRequest{
		Type:     models.TransactionTypeWithdraw,
		WalletID: t.data(dataWalletID),
		Gateway:  t.data(dataSelectedGateway),
		Amount:   amount,
		Extra:    extra,
	}
	result, err := e.backend.CreateTransaction(ctx, t.data(dataToken), req)
	if err != nil {
		return backendFailure(t, models.StepWithdrawOptions, err, "withdraw"), nil
	}

	return stepResult{
		next: models.StepMainMenu,
		patch: map[string]string{
			dataSelectedGateway:   "",
			dataAvailableGateways: "",
			dataWithdrawAmount:    "",
		},
		replies: []reply{
			text(fmt.Sprintf("✅ Your withdrawal of %.2f USD has been submitted. Reference: %s", amount, result.ID)),
			tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
		},
	}, nil
}
