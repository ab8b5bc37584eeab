package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// Login authenticates by email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser submits a completed signup draft.
func (c *Client) RegisterUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByIdentifier looks up a user by phone identifier.
func (c *Client) FindUserByIdentifier(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	path := "/users/lookup?phone=" + url.QueryEscape(phone)
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the backend record linking this channel identity.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), "", nil, nil)
}

// CheckIdentityStatus reports the identity verification status.
func (c *Client) CheckIdentityStatus(ctx context.Context, token string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/kyc/status", token, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// SubmitIdentityProfile records the collected KYC profile fields.
func (c *Client) SubmitIdentityProfile(ctx context.Context, token string, profile models.IdentityProfile) error {
	return c.doJSON(ctx, http.MethodPost, "/kyc/profile", token, profile, nil)
}

// CompleteIdentityVerification submits documents plus accepted agreements.
func (c *Client) CompleteIdentityVerification(ctx context.Context, token string, req models.IdentityCompletion) error {
	return c.doJSON(ctx, http.MethodPost, "/kyc/complete", token, req, nil)
}

// ListAccounts lists the user's trading accounts of the given kind
// ("demo", "real", or "" for all).
func (c *Client) ListAccounts(ctx context.Context, token, kind string) ([]models.Account, error) {
	path := "/accounts"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var accounts []models.Account
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListWallets lists the user's funding wallets.
func (c *Client) ListWallets(ctx context.Context, token string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := c.doJSON(ctx, http.MethodGet, "/wallets", token, nil, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

// ListPaymentGateways lists the payment gateways currently available.
func (c *Client) ListPaymentGateways(ctx context.Context, token string) ([]models.PaymentGateway, error) {
	var gateways []models.PaymentGateway
	if err := c.doJSON(ctx, http.MethodGet, "/payment-gateways", token, nil, &gateways); err != nil {
		return nil, err
	}
	return gateways, nil
}

// ListProducts fetches the trading account product catalog.
func (c *Client) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	var products []models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", token, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListAgreements fetches the legal agreements accepted during KYC.
func (c *Client) ListAgreements(ctx context.Context, token string) ([]models.Agreement, error) {
	var agreements []models.Agreement
	if err := c.doJSON(ctx, http.MethodGet, "/agreements", token, nil, &agreements); err != nil {
		return nil, err
	}
	return agreements, nil
}

// CreateTransaction submits a deposit or withdrawal.
func (c *Client) CreateTransaction(ctx context.Context, token string, req models.TransactionRequest) (*models.TransactionResult, error) {
	var result models.TransactionResult
	if err := c.doJSON(ctx, http.MethodPost, "/transactions", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTransferFromWallet moves funds from a wallet to a trading account.
func (c *Client) CreateTransferFromWallet(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error) {
	var result models.TransactionResult
	if err := c.doJSON(ctx, http.MethodPost, "/transfers/wallet", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTransferFromAccount moves funds from a trading account to a wallet.
func (c *Client) CreateTransferFromAccount(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error) {
	var result models.TransactionResult
	if err := c.doJSON(ctx, http.MethodPost, "/transfers/account", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTradingAccount opens a demo or real trading account.
func (c *Client) CreateTradingAccount(ctx context.Context, token string, req models.TradingAccountRequest) (*models.Account, error) {
	var account models.Account
	if err := c.doJSON(ctx, http.MethodPost, "/accounts", token, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetReferralLink fetches the user's refer-and-earn link.
func (c *Client) GetReferralLink(ctx context.Context, token string) (string, error) {
	var out struct {
		Link string `json:"link"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/referral-link", token, nil, &out); err != nil {
		return "", err
	}
	return out.Link, nil
}

// GetTransactionHistory fetches recent transactions for the user.
func (c *Client) GetTransactionHistory(ctx context.Context, token string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/transactions/history", token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
