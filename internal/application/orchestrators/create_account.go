package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/domain/account"
	"academyhub/internal/domain/audit"
)

// ErrEmailTaken reports a duplicate email on account creation.
var ErrEmailTaken = errors.New("an account with that email already exists")

// AccountStoreForAdmin defines the store interface for account management.
type AccountStoreForAdmin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// CreateAccountInput carries input for the account creation orchestrator.
type CreateAccountInput struct {
	Email     string
	Password  string
	Role      string
	StaffKind string
	TenantID  string
	ActorID   string
}

// CreateAccountResult carries the created account ID.
type CreateAccountResult struct {
	AccountID string
}

// CreateAccountDeps holds dependencies for ExecuteCreateAccount.
type CreateAccountDeps struct {
	Accounts   AccountStoreForAdmin
	Audits     AuditStoreForSweep
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteCreateAccount creates a console login with a bcrypt-hashed password.
// PRE: Role/staff kind/tenant combination satisfies the actor rules
// POST: Account persisted; creation audited
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (CreateAccountResult, error) {
	if _, err := deps.Accounts.GetByEmail(ctx, input.Email); err == nil {
		return CreateAccountResult{}, ErrEmailTaken
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     input.Email,
		Role:      input.Role,
		StaffKind: input.StaffKind,
		TenantID:  input.TenantID,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return CreateAccountResult{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return CreateAccountResult{}, err
	}

	if err := deps.Accounts.Save(ctx, acct); err != nil {
		return CreateAccountResult{}, fmt.Errorf("save account: %w", err)
	}

	ev := audit.NewEvent(acct.CreatedAt, audit.CategorySecurity, audit.ActionCreate).
		WithActor(input.ActorID).
		WithTenant(input.TenantID).
		WithResource("account", acct.ID).
		WithDescription(fmt.Sprintf("account created with role %s", acct.Role))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("account_event", "event", "created", "account_id", acct.ID, "role", acct.Role, "tenant_id", acct.TenantID)
	return CreateAccountResult{AccountID: acct.ID}, nil
}
