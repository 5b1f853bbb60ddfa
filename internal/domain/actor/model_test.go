package actor

import "testing"

// TestActor_Validate_Valid verifies well-formed actors pass validation.
func TestActor_Validate_Valid(t *testing.T) {
	cases := []Actor{
		{ID: "a1", Role: RolePlatformAdmin},
		{ID: "a2", Role: RoleAcademyAdmin, TenantID: "t1"},
		{ID: "a3", Role: RoleStaff, StaffKind: StaffCoach, TenantID: "t1"},
		{ID: "a4", Role: RoleStudent, TenantID: "t1"},
		{ID: "a5", Role: RoleGuardian, TenantID: "t1"},
	}
	for _, a := range cases {
		if err := a.Validate(); err != nil {
			t.Errorf("actor %s: unexpected error: %v", a.ID, err)
		}
	}
}

// TestActor_Validate_InvalidRole verifies unknown roles are rejected.
func TestActor_Validate_InvalidRole(t *testing.T) {
	a := Actor{ID: "a1", Role: "superuser", TenantID: "t1"}
	if err := a.Validate(); err != ErrInvalidRole {
		t.Fatalf("error = %v, want ErrInvalidRole", err)
	}
}

// TestActor_Validate_StaffKindRules verifies staff kind constraints.
func TestActor_Validate_StaffKindRules(t *testing.T) {
	missing := Actor{ID: "a1", Role: RoleStaff, TenantID: "t1"}
	if err := missing.Validate(); err != ErrInvalidStaffKind {
		t.Errorf("staff without kind: error = %v, want ErrInvalidStaffKind", err)
	}
	bogus := Actor{ID: "a2", Role: RoleStaff, StaffKind: "janitor", TenantID: "t1"}
	if err := bogus.Validate(); err != ErrInvalidStaffKind {
		t.Errorf("unknown staff kind: error = %v, want ErrInvalidStaffKind", err)
	}
	nonStaff := Actor{ID: "a3", Role: RoleStudent, StaffKind: StaffCoach, TenantID: "t1"}
	if err := nonStaff.Validate(); err != ErrStaffKindForbidden {
		t.Errorf("student with staff kind: error = %v, want ErrStaffKindForbidden", err)
	}
}

// TestActor_Validate_TenantRules verifies tenant ownership constraints.
func TestActor_Validate_TenantRules(t *testing.T) {
	admin := Actor{ID: "a1", Role: RolePlatformAdmin, TenantID: "t1"}
	if err := admin.Validate(); err != ErrTenantForbidden {
		t.Errorf("platform admin with tenant: error = %v, want ErrTenantForbidden", err)
	}
	orphan := Actor{ID: "a2", Role: RoleGuardian}
	if err := orphan.Validate(); err != ErrMissingTenant {
		t.Errorf("guardian without tenant: error = %v, want ErrMissingTenant", err)
	}
}

// TestActor_SeesBilling verifies which roles surface billing information.
func TestActor_SeesBilling(t *testing.T) {
	if !(Actor{Role: RolePlatformAdmin}).SeesBilling() {
		t.Errorf("platform admin should see billing")
	}
	if !(Actor{Role: RoleAcademyAdmin, TenantID: "t1"}).SeesBilling() {
		t.Errorf("academy admin should see billing")
	}
	if !(Actor{Role: RoleStaff, StaffKind: StaffManager, TenantID: "t1"}).SeesBilling() {
		t.Errorf("manager should see billing")
	}
	if (Actor{Role: RoleStaff, StaffKind: StaffCoach, TenantID: "t1"}).SeesBilling() {
		t.Errorf("coach should not see billing")
	}
	if (Actor{Role: RoleStudent, TenantID: "t1"}).SeesBilling() {
		t.Errorf("student should not see billing")
	}
}
