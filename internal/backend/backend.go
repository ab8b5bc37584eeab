// Package backend provides the client for the broker backend API.
//
// The dialog engine consumes the Gateway capability set; the HTTP client in
// client.go implements it against the REST API, and errors.go classifies
// failures so step handlers only decide "on failure fall back to step X".
package backend

import (
	"context"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// Gateway is the capability set of remote broker operations consumed by the
// dialog engine. Every call is awaited within a single turn; implementations
// fail fast and surface a classified error.
type Gateway interface {
	// Login authenticates a user by email and password and returns the user
	// with a session token.
	Login(ctx context.Context, email, password string) (*models.User, error)

	// RegisterUser submits a completed signup draft.
	RegisterUser(ctx context.Context, req models.SignupRequest) (*models.User, error)

	// FindUserByIdentifier looks up a user by phone identifier, returning a
	// token for silent re-authentication when the backend trusts the channel.
	FindUserByIdentifier(ctx context.Context, phone string) (*models.User, error)

	// DeleteUser removes the backend's record linking this channel identity.
	DeleteUser(ctx context.Context, userID string) error

	// CheckIdentityStatus reports the identity verification status for the
	// authenticated user: unverified, pending, approved, or rejected.
	CheckIdentityStatus(ctx context.Context, token string) (string, error)

	// SubmitIdentityProfile records the collected KYC profile fields.
	SubmitIdentityProfile(ctx context.Context, token string, profile models.IdentityProfile) error

	// CompleteIdentityVerification submits documents plus accepted agreements.
	CompleteIdentityVerification(ctx context.Context, token string, req models.IdentityCompletion) error

	ListAccounts(ctx context.Context, token, kind string) ([]models.Account, error)
	ListWallets(ctx context.Context, token string) ([]models.Wallet, error)
	ListPaymentGateways(ctx context.Context, token string) ([]models.PaymentGateway, error)
	ListProducts(ctx context.Context, token string) ([]models.Product, error)
	ListAgreements(ctx context.Context, token string) ([]models.Agreement, error)

	CreateTransaction(ctx context.Context, token string, req models.TransactionRequest) (*models.TransactionResult, error)
	CreateTransferFromWallet(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error)
	CreateTransferFromAccount(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error)
	CreateTradingAccount(ctx context.Context, token string, req models.TradingAccountRequest) (*models.Account, error)

	GetReferralLink(ctx context.Context, token string) (string, error)
	GetTransactionHistory(ctx context.Context, token string) ([]models.HistoryEntry, error)
}
