package dialog

import (
	"context"
	"fmt"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

const minTransactionAmount = 10

// handleDepositOptions resolves the chosen payment gateway against the set
// recorded when the dashboard listed them.
func (e *Engine) handleDepositOptions(ctx context.Context, t *turn) (stepResult, error) {
	gateway, ok := matchGateway(t, models.PayloadDepositGatewayPrefix)
	if !ok {
		return stay(t, text("Please choose one of the listed payment methods.")), nil
	}
	return stepResult{
		next:    models.StepDepositAmount,
		patch:   map[string]string{dataSelectedGateway: gateway},
		replies: []reply{text(fmt.Sprintf("How much would you like to deposit? (minimum %d USD)", minTransactionAmount))},
	}, nil
}

// handleDepositAmount validates the amount and submits the deposit. On
// upstream failure the user returns to gateway selection with the upstream
// message when one is safe to show.
func (e *Engine) handleDepositAmount(ctx context.Context, t *turn) (stepResult, error) {
	amount, ok := validate.Amount(t.text)
	if !ok || amount < minTransactionAmount {
		return stay(t, text(fmt.Sprintf("Please enter an amount of at least %d USD:", minTransactionAmount))), nil
	}

	req := models.TransactionRequest{
		Type:     models.TransactionTypeDeposit,
		WalletID: t.data(dataWalletID),
		Gateway:  t.data(dataSelectedGateway),
		Amount:   amount,
	}
	result, err := e.backend.CreateTransaction(ctx, t.data(dataToken), req)
	if err != nil {
		return backendFailure(t, models.StepDepositOptions, err, "deposit"), nil
	}

	replies := []reply{
		tmpl(messaging.TemplateDepositResult, map[string]string{"details": depositDetails(result)}),
	}
	if result.ReceiptURL != "" {
		replies = append(replies, attach(result.ReceiptURL, "Your deposit receipt"))
	}
	replies = append(replies, tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}))

	return stepResult{
		next:    models.StepMainMenu,
		patch:   map[string]string{dataSelectedGateway: "", dataAvailableGateways: ""},
		replies: replies,
	}, nil
}

func depositDetails(result *models.TransactionResult) string {
	switch {
	case result.PaymentLink != "":
		return "Complete your payment here:\n" + result.PaymentLink
	case result.Instructions != "":
		return result.Instructions
	default:
		return "Your deposit has been created. Reference: " + result.ID
	}
}
