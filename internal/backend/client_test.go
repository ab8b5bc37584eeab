package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlasmarkets/tradebot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("expected error when base URL is not set")
	}
}

func TestLoginSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" {
			t.Errorf("unexpected email %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": models.User{ID: "u-1", Email: "ada@example.com", Token: "tok-1", KYCStatus: models.KYCStatusApproved},
		})
	})

	user, err := c.Login(context.Background(), "ada@example.com", "Secret1!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Token != "tok-1" || user.KYCStatus != models.KYCStatusApproved {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestLoginUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected unauthorized classification, got %v", err)
	}
	if UserMessage(err) != "invalid credentials" {
		t.Errorf("expected upstream message, got %q", UserMessage(err))
	}
}

func TestRegisterUserConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"code": "duplicate_email", "message": "email already registered"})
	})

	_, err := c.RegisterUser(context.Background(), models.SignupRequest{Email: "dup@example.com"})
	if !IsConflict(err) {
		t.Errorf("expected conflict classification, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "duplicate_email" {
		t.Errorf("expected APIError with code, got %v", err)
	}
}

func TestBearerTokenSent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-9" {
			t.Errorf("unexpected authorization header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []models.Wallet{{ID: "w-1", Balance: 50, Currency: "USD"}},
		})
	})

	wallets, err := c.ListWallets(context.Background(), "tok-9")
	if err != nil {
		t.Fatalf("ListWallets failed: %v", err)
	}
	if len(wallets) != 1 || wallets[0].Balance != 50 {
		t.Errorf("unexpected wallets: %+v", wallets)
	}
}

func TestListAccountsKindQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("kind"); got != models.AccountKindDemo {
			t.Errorf("expected kind=demo query, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []models.Account{{ID: "a-1", Kind: models.AccountKindDemo}},
		})
	})

	accounts, err := c.ListAccounts(context.Background(), "tok", models.AccountKindDemo)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("unexpected accounts: %+v", accounts)
	}
}

func TestCreateTransactionPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.TransactionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Gateway != models.GatewayMatch2Pay || req.Amount != 25 {
			t.Errorf("unexpected transaction request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": models.TransactionResult{ID: "tx-1", PaymentLink: "https://pay.example/tx-1"},
		})
	})

	result, err := c.CreateTransaction(context.Background(), "tok", models.TransactionRequest{
		Type:    models.TransactionTypeDeposit,
		Gateway: models.GatewayMatch2Pay,
		Amount:  25,
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if result.PaymentLink == "" {
		t.Error("expected payment link in result")
	}
}

func TestTransportErrorIsNotClassified(t *testing.T) {
	c, err := NewClient(WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = c.ListWallets(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsConflict(err) || IsUnauthorized(err) {
		t.Errorf("transport error wrongly classified: %v", err)
	}
}
