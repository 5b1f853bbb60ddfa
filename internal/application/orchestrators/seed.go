package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"academyhub/internal/domain/account"
	"academyhub/internal/domain/actor"
)

// SeedPlatformAdminDeps holds dependencies for EnsurePlatformAdmin.
type SeedPlatformAdminDeps struct {
	Accounts   AccountStoreForAdmin
	Now        func() time.Time
	GenerateID func() string
}

// EnsurePlatformAdmin creates the bootstrap platform admin account if no
// account exists for the configured email. Safe to run on every startup.
// PRE: email and password come from deployment configuration
// POST: A platform admin account exists for email
func EnsurePlatformAdmin(ctx context.Context, email, password string, deps SeedPlatformAdminDeps) error {
	if _, err := deps.Accounts.GetByEmail(ctx, email); err == nil {
		return nil
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     email,
		Role:      actor.RolePlatformAdmin,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	if err := deps.Accounts.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("seed_event", "event", "platform_admin_created", "email", email)
	return nil
}
