package backend

import (
	"context"
	"fmt"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// MockGateway is a hand-written Gateway double for tests. Each operation can
// be overridden with a function field; unset operations return zero values.
// Calls records the operation names in invocation order.
type MockGateway struct {
	Calls []string

	LoginFn                        func(email, password string) (*models.User, error)
	RegisterUserFn                 func(req models.SignupRequest) (*models.User, error)
	FindUserByIdentifierFn         func(phone string) (*models.User, error)
	DeleteUserFn                   func(userID string) error
	CheckIdentityStatusFn          func(token string) (string, error)
	SubmitIdentityProfileFn        func(token string, profile models.IdentityProfile) error
	CompleteIdentityVerificationFn func(token string, req models.IdentityCompletion) error
	ListAccountsFn                 func(token, kind string) ([]models.Account, error)
	ListWalletsFn                  func(token string) ([]models.Wallet, error)
	ListPaymentGatewaysFn          func(token string) ([]models.PaymentGateway, error)
	ListProductsFn                 func(token string) ([]models.Product, error)
	ListAgreementsFn               func(token string) ([]models.Agreement, error)
	CreateTransactionFn            func(token string, req models.TransactionRequest) (*models.TransactionResult, error)
	CreateTransferFromWalletFn     func(token string, req models.TransferRequest) (*models.TransactionResult, error)
	CreateTransferFromAccountFn    func(token string, req models.TransferRequest) (*models.TransactionResult, error)
	CreateTradingAccountFn         func(token string, req models.TradingAccountRequest) (*models.Account, error)
	GetReferralLinkFn              func(token string) (string, error)
	GetTransactionHistoryFn        func(token string) ([]models.HistoryEntry, error)
}

// NewMockGateway creates an empty mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) record(op string) {
	m.Calls = append(m.Calls, op)
}

// CallCount returns how many times op was invoked.
func (m *MockGateway) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*models.User, error) {
	m.record("Login")
	if m.LoginFn != nil {
		return m.LoginFn(email, password)
	}
	return nil, fmt.Errorf("mock: Login not configured")
}

func (m *MockGateway) RegisterUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	m.record("RegisterUser")
	if m.RegisterUserFn != nil {
		return m.RegisterUserFn(req)
	}
	return &models.User{ID: "u-mock", Email: req.Email}, nil
}

func (m *MockGateway) FindUserByIdentifier(ctx context.Context, phone string) (*models.User, error) {
	m.record("FindUserByIdentifier")
	if m.FindUserByIdentifierFn != nil {
		return m.FindUserByIdentifierFn(phone)
	}
	return nil, &APIError{StatusCode: 404, Message: "user not found"}
}

func (m *MockGateway) DeleteUser(ctx context.Context, userID string) error {
	m.record("DeleteUser")
	if m.DeleteUserFn != nil {
		return m.DeleteUserFn(userID)
	}
	return nil
}

func (m *MockGateway) CheckIdentityStatus(ctx context.Context, token string) (string, error) {
	m.record("CheckIdentityStatus")
	if m.CheckIdentityStatusFn != nil {
		return m.CheckIdentityStatusFn(token)
	}
	return models.KYCStatusUnverified, nil
}

func (m *MockGateway) SubmitIdentityProfile(ctx context.Context, token string, profile models.IdentityProfile) error {
	m.record("SubmitIdentityProfile")
	if m.SubmitIdentityProfileFn != nil {
		return m.SubmitIdentityProfileFn(token, profile)
	}
	return nil
}

func (m *MockGateway) CompleteIdentityVerification(ctx context.Context, token string, req models.IdentityCompletion) error {
	m.record("CompleteIdentityVerification")
	if m.CompleteIdentityVerificationFn != nil {
		return m.CompleteIdentityVerificationFn(token, req)
	}
	return nil
}

func (m *MockGateway) ListAccounts(ctx context.Context, token, kind string) ([]models.Account, error) {
	m.record("ListAccounts")
	if m.ListAccountsFn != nil {
		return m.ListAccountsFn(token, kind)
	}
	return nil, nil
}

func (m *MockGateway) ListWallets(ctx context.Context, token string) ([]models.Wallet, error) {
	m.record("ListWallets")
	if m.ListWalletsFn != nil {
		return m.ListWalletsFn(token)
	}
	return nil, nil
}

func (m *MockGateway) ListPaymentGateways(ctx context.Context, token string) ([]models.PaymentGateway, error) {
	m.record("ListPaymentGateways")
	if m.ListPaymentGatewaysFn != nil {
		return m.ListPaymentGatewaysFn(token)
	}
	return nil, nil
}

func (m *MockGateway) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	m.record("ListProducts")
	if m.ListProductsFn != nil {
		return m.ListProductsFn(token)
	}
	return nil, nil
}

func (m *MockGateway) ListAgreements(ctx context.Context, token string) ([]models.Agreement, error) {
	m.record("ListAgreements")
	if m.ListAgreementsFn != nil {
		return m.ListAgreementsFn(token)
	}
	return nil, nil
}

func (m *MockGateway) CreateTransaction(ctx context.Context, token string, req models.TransactionRequest) (*models.TransactionResult, error) {
	m.record("CreateTransaction")
	if m.CreateTransactionFn != nil {
		return m.CreateTransactionFn(token, req)
	}
	return &models.TransactionResult{ID: "tx-mock"}, nil
}

func (m *MockGateway) CreateTransferFromWallet(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error) {
	m.record("CreateTransferFromWallet")
	if m.CreateTransferFromWalletFn != nil {
		return m.CreateTransferFromWalletFn(token, req)
	}
	return &models.TransactionResult{ID: "tr-mock"}, nil
}

func (m *MockGateway) CreateTransferFromAccount(ctx context.Context, token string, req models.TransferRequest) (*models.TransactionResult, error) {
	m.record("CreateTransferFromAccount")
	if m.CreateTransferFromAccountFn != nil {
		return m.CreateTransferFromAccountFn(token, req)
	}
	return &models.TransactionResult{ID: "tr-mock"}, nil
}

func (m *MockGateway) CreateTradingAccount(ctx context.Context, token string, req models.TradingAccountRequest) (*models.Account, error) {
	m.record("CreateTradingAccount")
	if m.CreateTradingAccountFn != nil {
		return m.CreateTradingAccountFn(token, req)
	}
	return &models.Account{ID: "acc-mock", Name: req.Name, Kind: req.Kind}, nil
}

func (m *MockGateway) GetReferralLink(ctx context.Context, token string) (string, error) {
	m.record("GetReferralLink")
	if m.GetReferralLinkFn != nil {
		return m.GetReferralLinkFn(token)
	}
	return "", nil
}

func (m *MockGateway) GetTransactionHistory(ctx context.Context, token string) ([]models.HistoryEntry, error) {
	m.record("GetTransactionHistory")
	if m.GetTransactionHistoryFn != nil {
		return m.GetTransactionHistoryFn(token)
	}
	return nil, nil
}
