// Package models defines the core data structures shared across tradebot components.
//
// It contains the inbound event shape consumed from the messaging provider,
// the per-user conversation session, and the DTOs exchanged with the broker
// backend (users, wallets, accounts, gateways, products, transactions).
package models

import "time"

// InboundEvent is one normalized message delivery from the messaging provider.
// ButtonPayload carries the opaque token of a tapped button and takes
// precedence over Text during dispatch.
type InboundEvent struct {
	UserID           string `json:"user_id"`
	Text             string `json:"text"`
	ButtonPayload    string `json:"button_payload,omitempty"`
	MediaURL         string `json:"media_url,omitempty"`
	MediaContentType string `json:"media_content_type,omitempty"`
	MediaCount       int    `json:"media_count,omitempty"`
	Time             int64  `json:"time"`
}

// HasMedia reports whether the event carries at least one attachment.
func (e InboundEvent) HasMedia() bool {
	return e.MediaCount > 0 && e.MediaURL != ""
}

// DefaultFlow tags sessions created by the template-driven conversation.
const DefaultFlow = "template-driven"

// LanguageEnglish is the only supported conversation language.
const LanguageEnglish = "english"

// Session is the unit of conversational memory, one per user identifier.
// Data is an open bag accumulating wizard answers across steps; it is
// overwritten wholesale when a wizard restarts and cleared on logout.
type Session struct {
	UserID    string            `json:"user_id"`
	Step      Step              `json:"step"`
	Flow      string            `json:"flow"`
	Language  string            `json:"language"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates a fresh session positioned at language selection.
func NewSession(userID string) Session {
	now := time.Now()
	return Session{
		UserID:    userID,
		Step:      StepLanguageSelection,
		Flow:      DefaultFlow,
		Language:  "",
		Data:      make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Get returns the data bag value for key, or "" when unset.
func (s Session) Get(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Clone returns a deep copy of the session so handlers can work on an
// immutable snapshot without mutating the loaded state in place.
func (s Session) Clone() Session {
	out := s
	out.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return out
}

// Identity verification statuses reported by the broker backend.
const (
	KYCStatusUnverified = "unverified"
	KYCStatusPending    = "pending"
	KYCStatusApproved   = "approved"
	KYCStatusRejected   = "rejected"
)

// User is the broker backend's view of a registered client.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Token     string `json:"token,omitempty"`
	KYCStatus string `json:"kyc_status,omitempty"`
}

// Account kinds for trading accounts.
const (
	AccountKindDemo = "demo"
	AccountKindReal = "real"
)

// Account is a trading account belonging to a user.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Number   string  `json:"number,omitempty"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Wallet is a funding wallet belonging to a user.
type Wallet struct {
	ID       string  `json:"id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// PaymentGateway is one payment integration the backend currently offers.
type PaymentGateway struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a trading account product from the backend catalog.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Agreement is a legal agreement the user accepts during identity verification.
type Agreement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SignupRequest carries a completed signup draft to the backend.
type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// IdentityProfile carries the collected KYC profile fields.
type IdentityProfile struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	DOB        string `json:"dob"`
}

// IdentityCompletion carries document paths and accepted agreements for the
// final identity verification submission.
type IdentityCompletion struct {
	Profile      IdentityProfile `json:"profile"`
	IdentityPath string          `json:"identity_path"`
	UtilityPath  string          `json:"utility_path,omitempty"`
	AgreementIDs []string        `json:"agreement_ids"`
}

// Transaction types understood by the backend.
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
)

// TransactionRequest carries a deposit or withdrawal to the backend, with a
// gateway-specific payload assembled from the wizard draft.
type TransactionRequest struct {
	Type     string            `json:"type"`
	WalletID string            `json:"wallet_id"`
	Gateway  string            `json:"gateway"`
	Amount   float64           `json:"amount"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// TransferRequest carries an internal wallet/account transfer to the backend.
type TransferRequest struct {
	SourceID      string  `json:"source_id"`
	DestinationID string  `json:"destination_id"`
	Amount        float64 `json:"amount"`
}

// TradingAccountRequest carries a trading account creation to the backend.
// ProductID is empty for demo accounts; InitialBalance is zero for real ones.
type TradingAccountRequest struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	ProductID      string  `json:"product_id,omitempty"`
	InitialBalance float64 `json:"initial_balance,omitempty"`
}

// TransactionResult is the backend's answer to a transaction or transfer.
// Exactly one of PaymentLink / Instructions is typically set for deposits;
// withdrawals and transfers report the transaction id. ReceiptURL, when set,
// points at a receipt document to forward to the user.
type TransactionResult struct {
	ID           string `json:"id"`
	PaymentLink  string `json:"payment_link,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	ReceiptURL   string `json:"receipt_url,omitempty"`
}

// HistoryEntry is one row of a user's transaction history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
