package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

// transferOption is one selectable transfer endpoint. The enumerated lists
// are serialized as JSON into the session data bag so the numbered selection
// in the following turn resolves against exactly what was shown.
type transferOption struct {
	Type    string  `json:"type"` // "wallet" or "account"
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Balance float64 `json:"balance"`
}

const (
	transferTypeWallet  = "wallet"
	transferTypeAccount = "account"
)

func encodeTransferOptions(options []transferOption) string {
	raw, err := json.Marshal(options)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeTransferOptions(raw string) []transferOption {
	var options []transferOption
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil
	}
	return options
}

func transferMenu(header string, options []transferOption) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s (%.2f USD)\n", i+1, opt.Label, opt.Balance)
	}
	b.WriteString("\nReply with the number of your choice.")
	return b.String()
}

// startTransfer enumerates wallets and real trading accounts as transfer
// sources and opens the source selection step.
func (e *Engine) startTransfer(ctx context.Context, t *turn) (stepResult, error) {
	token := t.data(dataToken)

	wallets, err := e.backend.ListWallets(ctx, token)
	if err != nil {
		return backendFailure(t, models.StepDashboard, err, "transfer wallets"), nil
	}
	accounts, err := e.backend.ListAccounts(ctx, token, models.AccountKindReal)
	if err != nil {
		return backendFailure(t, models.StepDashboard, err, "transfer accounts"), nil
	}

	var options []transferOption
	for _, w := range wallets {
		options = append(options, transferOption{
			Type:    transferTypeWallet,
			ID:      w.ID,
			Label:   "Wallet (" + w.Currency + ")",
			Balance: w.Balance,
		})
	}
	for _, a := range accounts {
		options = append(options, transferOption{
			Type:    transferTypeAccount,
			ID:      a.ID,
			Label:   accountLabel(a),
			Balance: a.Balance,
		})
	}
	if len(options) < 2 {
		return stay(t, text("You need at least a wallet and a trading account to make a transfer.")), nil
	}

	return stepResult{
		next:    models.StepTransferSelectSource,
		patch:   map[string]string{dataTransferOptions: encodeTransferOptions(options)},
		replies: []reply{text(transferMenu("💸 Where would you like to transfer from?", options))},
	}, nil
}

// handleTransferSelectSource resolves the numbered source selection and
// enumerates the opposite category as destinations.
func (e *Engine) handleTransferSelectSource(ctx context.Context, t *turn) (stepResult, error) {
	options := decodeTransferOptions(t.data(dataTransferOptions))
	if len(options) == 0 {
		return e.startTransfer(ctx, t)
	}

	index, ok := validate.Selection(t.input, len(options))
	if !ok {
		return stay(t, text(fmt.Sprintf("Invalid selection. Please reply with a number between 1 and %d.", len(options)))), nil
	}
	source := options[index-1]

	var destinations []transferOption
	for _, opt := range options {
		if opt.Type != source.Type {
			destinations = append(destinations, opt)
		}
	}
	if len(destinations) == 0 {
		return stepResult{
			next:    models.StepDashboard,
			replies: []reply{text("There's nowhere to transfer to from that selection.")},
		}, nil
	}

	return stepResult{
		next: models.StepTransferSelectDestination,
		patch: map[string]string{
			dataTransferSourceType:  source.Type,
			dataTransferSourceID:    source.ID,
			dataTransferSourceLabel: source.Label,
			dataAvailableBalance:    strconv.FormatFloat(source.Balance, 'f', 2, 64),
			dataTransferDestOptions: encodeTransferOptions(destinations),
		},
		replies: []reply{text(transferMenu("And where should it go?", destinations))},
	}, nil
}

// handleTransferSelectDestination resolves the numbered destination selection.
func (e *Engine) handleTransferSelectDestination(ctx context.Context, t *turn) (stepResult, error) {
	destinations := decodeTransferOptions(t.data(dataTransferDestOptions))
	if len(destinations) == 0 {
		return e.startTransfer(ctx, t)
	}

	index, ok := validate.Selection(t.input, len(destinations))
	if !ok {
		return stay(t, text(fmt.Sprintf("Invalid selection. Please reply with a number between 1 and %d.", len(destinations)))), nil
	}
	dest := destinations[index-1]

	return stepResult{
		next: models.StepTransferAmount,
		patch: map[string]string{
			dataTransferDestinationType:  dest.Type,
			dataTransferDestinationID:    dest.ID,
			dataTransferDestinationLabel: dest.Label,
		},
		replies: []reply{text(fmt.Sprintf("How much would you like to transfer? (available: %s USD)", t.data(dataAvailableBalance)))},
	}, nil
}

// handleTransferAmount validates the amount against the source balance
// captured at selection time.
func (e *Engine) handleTransferAmount(ctx context.Context, t *turn) (stepResult, error) {
	amount, ok := validate.Amount(t.text)
	if !ok || amount < 0.01 {
		return stay(t, text("Please enter a positive amount:")), nil
	}
	available, _ := validate.Amount(t.data(dataAvailableBalance))
	if amount > available {
		return stay(t, text(fmt.Sprintf("Insufficient balance: you have %.2f USD available. Please enter a smaller amount:", available))), nil
	}

	return stepResult{
		next:  models.StepTransferConfirmation,
		patch: map[string]string{dataTransferAmount: strconv.FormatFloat(amount, 'f', 2, 64)},
		replies: []reply{text(fmt.Sprintf("Please confirm:\n\nTransfer %.2f USD\nFrom: %s\nTo: %s\n\nReply \"confirm\" or \"cancel\".",
			amount, t.data(dataTransferSourceLabel), t.data(dataTransferDestinationLabel)))},
	}, nil
}

// handleTransferConfirmation executes or abandons the drafted transfer. The
// backend endpoint depends on the source type.
func (e *Engine) handleTransferConfirmation(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadTransferConfirm, "confirm", "yes":
		amount, _ := validate.Amount(t.data(dataTransferAmount))
		req := models.TransferRequest{
			SourceID:      t.data(dataTransferSourceID),
			DestinationID: t.data(dataTransferDestinationID),
			Amount:        amount,
		}

		var err error
		if t.data(dataTransferSourceType) == transferTypeWallet {
			_, err = e.backend.CreateTransferFromWallet(ctx, t.data(dataToken), req)
		} else {
			_, err = e.backend.CreateTransferFromAccount(ctx, t.data(dataToken), req)
		}
		if err != nil {
			return backendFailure(t, models.StepMainMenu, err, "transfer"), nil
		}

		res := stepResult{
			next:  models.StepMainMenu,
			patch: clearTransferDraft(),
			replies: []reply{
				text(fmt.Sprintf("✅ Transferred %.2f USD from %s to %s.",
					amount, t.data(dataTransferSourceLabel), t.data(dataTransferDestinationLabel))),
				tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
			},
		}
		return res, nil

	case models.PayloadTransferCancel, "cancel", "no":
		return stepResult{
			next:  models.StepMainMenu,
			patch: clearTransferDraft(),
			replies: []reply{
				text("Transfer cancelled."),
				tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
			},
		}, nil

	default:
		return stay(t, text("Please reply \"confirm\" to complete the transfer or \"cancel\" to abandon it.")), nil
	}
}

func clearTransferDraft() map[string]string {
	return map[string]string{
		dataTransferOptions:          "",
		dataTransferDestOptions:      "",
		dataTransferSourceType:       "",
		dataTransferSourceID:         "",
		dataTransferSourceLabel:      "",
		dataTransferDestinationType:  "",
		dataTransferDestinationID:    "",
		dataTransferDestinationLabel: "",
		dataTransferAmount:           "",
		dataAvailableBalance:         "",
	}
}
