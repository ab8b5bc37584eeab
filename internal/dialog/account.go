package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasmarkets/tradebot/internal/messaging"
	"github.com/atlasmarkets/tradebot/internal/models"
	"github.com/atlasmarkets/tradebot/internal/validate"
)

// Product names expected in the backend catalog for real accounts. Matching
// is done on a normalized form so catalog cosmetics don't break the wizard.
const (
	productNameStandard  = "standard account"
	productNameRawSpread = "raw spread account"
)

// handleCreateTradingAccount branches the wizard on account kind. The real
// branch resolves both offered products up front; if either is missing the
// whole flow aborts rather than offering a partial product menu.
func (e *Engine) handleCreateTradingAccount(ctx context.Context, t *turn) (stepResult, error) {
	switch t.input {
	case models.PayloadAccountSectionDemo, "demo", "demo account", "1":
		return stepResult{
			next:    models.StepAccountDemoName,
			replies: []reply{text("What would you like to name your demo account?")},
		}, nil

	case models.PayloadAccountSectionReal, "real", "real account", "2":
		products, err := e.backend.ListProducts(ctx, t.data(dataToken))
		if err != nil {
			return backendFailure(t, models.StepMainMenu, err, "account products"), nil
		}

		standardID, rawID := "", ""
		for _, p := range products {
			switch normalizeProductName(p.Name) {
			case productNameStandard:
				standardID = p.ID
			case productNameRawSpread:
				rawID = p.ID
			}
		}
		if standardID == "" || rawID == "" {
			return stepResult{
				next: models.StepMainMenu,
				replies: []reply{
					text("😕 Real account products are unavailable right now. Please try again later."),
					tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
				},
			}, nil
		}

		return stepResult{
			next: models.StepAccountRealName,
			patch: map[string]string{
				dataProductStandardID:  standardID,
				dataProductRawSpreadID: rawID,
			},
			replies: []reply{text("What would you like to name your real account?")},
		}, nil

	default:
		return stay(t, text("Please choose:\n\n1. Demo account\n2. Real account")), nil
	}
}

func normalizeProductName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func (e *Engine) handleAccountDemoName(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter a name with at least 2 characters:")), nil
	}
	return stepResult{
		next:    models.StepAccountDemoBalance,
		patch:   map[string]string{dataAccountName: t.text},
		replies: []reply{text("What starting balance would you like? (virtual USD)")},
	}, nil
}

// handleAccountDemoBalance validates the virtual balance and creates the
// demo account.
func (e *Engine) handleAccountDemoBalance(ctx context.Context, t *turn) (stepResult, error) {
	balance, ok := validate.Amount(t.text)
	if !ok || balance <= 0 {
		return stay(t, text("Please enter a positive starting balance:")), nil
	}

	req := models.TradingAccountRequest{
		Name:           t.data(dataAccountName),
		Kind:           models.AccountKindDemo,
		InitialBalance: balance,
	}
	account, err := e.backend.CreateTradingAccount(ctx, t.data(dataToken), req)
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "demo account"), nil
	}

	return accountCreated(t, account)
}

func (e *Engine) handleAccountRealName(ctx context.Context, t *turn) (stepResult, error) {
	if !validate.MinLen(t.text, 2) {
		return stay(t, text("Please enter a name with at least 2 characters:")), nil
	}
	return stepResult{
		next:  models.StepAccountRealProduct,
		patch: map[string]string{dataAccountName: t.text},
		replies: []reply{text("Which product would you like?\n\n" +
			"1. Standard Account\n2. Raw Spread Account")},
	}, nil
}

// handleAccountRealProduct resolves the product choice against the IDs
// captured when the wizard opened and creates the real account.
func (e *Engine) handleAccountRealProduct(ctx context.Context, t *turn) (stepResult, error) {
	var productID string
	switch t.input {
	case models.PayloadAccountRealProductStandard, "standard", "standard account", "1":
		productID = t.data(dataProductStandardID)
	case models.PayloadAccountRealProductRaw, "raw spread", "raw spread account", "2":
		productID = t.data(dataProductRawSpreadID)
	default:
		return stay(t, text("Please choose:\n\n1. Standard Account\n2. Raw Spread Account")), nil
	}

	req := models.TradingAccountRequest{
		Name:      t.data(dataAccountName),
		Kind:      models.AccountKindReal,
		ProductID: productID,
	}
	account, err := e.backend.CreateTradingAccount(ctx, t.data(dataToken), req)
	if err != nil {
		return backendFailure(t, models.StepMainMenu, err, "real account"), nil
	}

	return accountCreated(t, account)
}

func accountCreated(t *turn, account *models.Account) (stepResult, error) {
	label := accountLabel(*account)
	return stepResult{
		next: models.StepMainMenu,
		patch: map[string]string{
			dataAccountName:        "",
			dataProductStandardID:  "",
			dataProductRawSpreadID: "",
		},
		replies: []reply{
			text(fmt.Sprintf("🎉 Your %s trading account \"%s\" is ready!", account.Kind, label)),
			tmpl(messaging.TemplateMainMenu, map[string]string{"firstName": displayName(t.data(dataFirstName))}),
		},
	}, nil
}
