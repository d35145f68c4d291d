// ABOUTME: Tests for Bearer token authentication middleware
// ABOUTME: Verifies token validation, account checks and claims extraction

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/sandbox/services"
	"github.com/markalston/clinic-console/internal/session"
)

type fakeAccounts map[string]models.Account

func (f fakeAccounts) Account(id string) (models.Account, error) {
	acct, ok := f[id]
	if !ok {
		return models.Account{}, services.ErrNotFound
	}
	return acct, nil
}

func authFixture(t *testing.T) (*services.TokenService, fakeAccounts, models.Account) {
	t.Helper()
	tokens, err := services.NewTokenService("test-secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	acct := models.Account{}
	acct.ID = "user-1"
	acct.Email = "doc@clinic.uz"
	acct.Role = session.RoleDoctor
	acct.IsActive = true
	return tokens, fakeAccounts{acct.ID: acct}, acct
}

func runAuth(t *testing.T, cfg AuthConfig, header string) (*httptest.ResponseRecorder, *UserClaims) {
	t.Helper()
	var got *UserClaims
	handler := Auth(cfg)(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserClaims(r)
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec, got
}

func TestAuth_NoHeader_Returns401(t *testing.T) {
	tokens, accounts, _ := authFixture(t)
	rec, claims := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if claims != nil {
		t.Error("Handler should not be called")
	}
}

func TestAuth_InvalidFormat_Returns401(t *testing.T) {
	tokens, accounts, _ := authFixture(t)
	rec, _ := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Basic abc")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuth_ValidToken_SetsClaims(t *testing.T) {
	tokens, accounts, acct := authFixture(t)
	token, _ := tokens.Issue(&acct)

	rec, claims := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	if claims == nil || claims.UserID != "user-1" || claims.Role != session.RoleDoctor {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestAuth_RoleComesFromAccount(t *testing.T) {
	tokens, accounts, acct := authFixture(t)
	token, _ := tokens.Issue(&acct)

	promoted := accounts["user-1"]
	promoted.Role = session.RoleAdmin
	accounts["user-1"] = promoted

	_, claims := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Bearer "+token)
	if claims == nil || claims.Role != session.RoleAdmin {
		t.Errorf("Expected current account role admin, got %+v", claims)
	}
}

func TestAuth_InactiveAccount_Returns401(t *testing.T) {
	tokens, accounts, acct := authFixture(t)
	token, _ := tokens.Issue(&acct)

	inactive := accounts["user-1"]
	inactive.IsActive = false
	accounts["user-1"] = inactive

	rec, _ := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuth_DeletedAccount_Returns401(t *testing.T) {
	tokens, accounts, acct := authFixture(t)
	token, _ := tokens.Issue(&acct)
	delete(accounts, "user-1")

	rec, _ := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuth_ForeignToken_Returns401(t *testing.T) {
	tokens, accounts, acct := authFixture(t)
	other, _ := services.NewTokenService("other-secret", time.Minute)
	token, _ := other.Issue(&acct)

	rec, _ := runAuth(t, AuthConfig{Tokens: tokens, Accounts: accounts}, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
