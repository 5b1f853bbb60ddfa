package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"academyhub/internal/domain/account"
	"academyhub/internal/domain/actor"
)

type mockLoginStore struct {
	accounts map[string]account.Account
	saved    []account.Account
}

func (m *mockLoginStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, errors.New("account not found")
	}
	return a, nil
}

func (m *mockLoginStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.Email] = a
	m.saved = append(m.saved, a)
	return nil
}

func loginTestAccount(t *testing.T, email, password string) account.Account {
	t.Helper()
	acct := account.Account{
		ID:        "acct-1",
		Email:     email,
		Role:      actor.RoleAcademyAdmin,
		TenantID:  "ten-1",
		CreatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := acct.SetPassword(password); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	return acct
}

func TestLoginSuccessResetsFailedAttempts(t *testing.T) {
	acct := loginTestAccount(t, "admin@harbour.test", "correct-horse-battery")
	acct.FailedLogins = 3
	store := &mockLoginStore{accounts: map[string]account.Account{acct.Email: acct}}

	result, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@harbour.test",
		Password: "correct-horse-battery",
	}, LoginDeps{AccountStore: store})
	if err != nil {
		t.Fatalf("ExecuteLogin: %v", err)
	}

	if result.AccountID != "acct-1" || result.Role != actor.RoleAcademyAdmin || result.TenantID != "ten-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := store.accounts[acct.Email].FailedLogins; got != 0 {
		t.Errorf("FailedLogins = %d after success, want 0", got)
	}
}

func TestLoginWrongPasswordRecordsFailure(t *testing.T) {
	acct := loginTestAccount(t, "admin@harbour.test", "correct-horse-battery")
	store := &mockLoginStore{accounts: map[string]account.Account{acct.Email: acct}}

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@harbour.test",
		Password: "wrong-password-here",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	if got := store.accounts[acct.Email].FailedLogins; got != 1 {
		t.Errorf("FailedLogins = %d, want 1", got)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d times, want 1", len(store.saved))
	}
}

func TestLoginFifthFailureLocks(t *testing.T) {
	acct := loginTestAccount(t, "admin@harbour.test", "correct-horse-battery")
	acct.FailedLogins = 4
	store := &mockLoginStore{accounts: map[string]account.Account{acct.Email: acct}}

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@harbour.test",
		Password: "wrong-password-here",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	locked := store.accounts[acct.Email]
	if locked.FailedLogins != 5 {
		t.Errorf("FailedLogins = %d, want 5", locked.FailedLogins)
	}
	if locked.LockedUntil.IsZero() {
		t.Error("LockedUntil not set after fifth failure")
	}
}

func TestLoginLockedAccountBlocked(t *testing.T) {
	acct := loginTestAccount(t, "admin@harbour.test", "correct-horse-battery")
	acct.LockedUntil = time.Now().Add(10 * time.Minute)
	store := &mockLoginStore{accounts: map[string]account.Account{acct.Email: acct}}

	// Even the correct password is rejected while the lock holds.
	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@harbour.test",
		Password: "correct-horse-battery",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := &mockLoginStore{accounts: map[string]account.Account{}}

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "nobody@harbour.test",
		Password: "correct-horse-battery",
	}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginEmptyInput(t *testing.T) {
	store := &mockLoginStore{accounts: map[string]account.Account{}}

	_, err := ExecuteLogin(context.Background(), LoginInput{}, LoginDeps{AccountStore: store})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
