package account

import (
	"testing"
	"time"

	"academyhub/internal/domain/actor"
)

// TestAccount_Validate verifies email and role/tenant rules.
func TestAccount_Validate(t *testing.T) {
	a := Account{ID: "a1", Email: "ops@academyhub.example", Role: actor.RolePlatformAdmin}
	if err := a.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Email = ""
	if err := a.Validate(); err != ErrEmptyEmail {
		t.Errorf("empty email: error = %v, want ErrEmptyEmail", err)
	}

	a.Email = "not-an-email"
	if err := a.Validate(); err != ErrInvalidEmail {
		t.Errorf("bad email: error = %v, want ErrInvalidEmail", err)
	}

	a.Email = "ops@academyhub.example"
	a.Role = "superuser"
	if err := a.Validate(); err != actor.ErrInvalidRole {
		t.Errorf("bad role: error = %v, want actor.ErrInvalidRole", err)
	}

	a.Role = actor.RoleAcademyAdmin
	if err := a.Validate(); err != actor.ErrMissingTenant {
		t.Errorf("academy admin without tenant: error = %v, want actor.ErrMissingTenant", err)
	}
}

// TestAccount_PasswordRoundTrip verifies hashing and verification.
func TestAccount_PasswordRoundTrip(t *testing.T) {
	a := Account{ID: "a1", Email: "ops@academyhub.example", Role: actor.RolePlatformAdmin}
	if err := a.SetPassword("short"); err != ErrPasswordTooShort {
		t.Fatalf("short password: error = %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword(""); err != ErrEmptyPassword {
		t.Fatalf("empty password: error = %v, want ErrEmptyPassword", err)
	}
	if err := a.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := a.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("check password: %v", err)
	}
	if err := a.CheckPassword("wrong horse battery"); err != ErrWrongPassword {
		t.Errorf("wrong password: error = %v, want ErrWrongPassword", err)
	}
}

// TestAccount_Lockout verifies the failed-login lockout behavior.
func TestAccount_Lockout(t *testing.T) {
	a := Account{ID: "a1", Email: "ops@academyhub.example", Role: actor.RolePlatformAdmin}
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin()
	}
	if a.IsLocked() {
		t.Fatalf("locked after 4 failures, want unlocked")
	}
	a.RecordFailedLogin()
	if !a.IsLocked() {
		t.Fatalf("not locked after 5 failures")
	}
	a.ResetFailedLogins()
	if a.IsLocked() || a.FailedLogins != 0 || !a.LockedUntil.Equal(time.Time{}) {
		t.Fatalf("reset did not clear lockout state")
	}
}

// TestAccount_Actor verifies the actor projection.
func TestAccount_Actor(t *testing.T) {
	a := Account{ID: "a1", Role: actor.RoleStaff, StaffKind: actor.StaffCoach, TenantID: "t1"}
	ac := a.Actor()
	if ac.ID != "a1" || ac.Role != actor.RoleStaff || ac.StaffKind != actor.StaffCoach || ac.TenantID != "t1" {
		t.Fatalf("actor projection mismatch: %+v", ac)
	}
}
