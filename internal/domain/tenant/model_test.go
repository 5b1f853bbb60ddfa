package tenant

import (
	"strings"
	"testing"
)

// TestTenant_Validate_Valid verifies a well-formed tenant passes validation.
func TestTenant_Validate_Valid(t *testing.T) {
	tn := Tenant{ID: "t1", Name: "Eastside Gymnastics", Plan: PlanStandard}
	if err := tn.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestTenant_Validate_EmptyName verifies an empty name is rejected.
func TestTenant_Validate_EmptyName(t *testing.T) {
	tn := Tenant{ID: "t1", Name: "   ", Plan: PlanStarter}
	if err := tn.Validate(); err != ErrEmptyName {
		t.Fatalf("error = %v, want ErrEmptyName", err)
	}
}

// TestTenant_Validate_NameTooLong verifies overlong names are rejected.
func TestTenant_Validate_NameTooLong(t *testing.T) {
	tn := Tenant{ID: "t1", Name: strings.Repeat("a", MaxNameLength+1), Plan: PlanStarter}
	if err := tn.Validate(); err != ErrNameTooLong {
		t.Fatalf("error = %v, want ErrNameTooLong", err)
	}
}

// TestTenant_Validate_InvalidPlan verifies unknown plans are rejected.
func TestTenant_Validate_InvalidPlan(t *testing.T) {
	tn := Tenant{ID: "t1", Name: "Eastside", Plan: "enterprise"}
	if err := tn.Validate(); err != ErrInvalidPlan {
		t.Fatalf("error = %v, want ErrInvalidPlan", err)
	}
}

// TestPlanRank verifies the tier ordering and unknown-plan handling.
func TestPlanRank(t *testing.T) {
	if PlanRank(PlanStarter) != 0 || PlanRank(PlanStandard) != 1 || PlanRank(PlanPremium) != 2 {
		t.Fatalf("plan ranks out of order: %d %d %d",
			PlanRank(PlanStarter), PlanRank(PlanStandard), PlanRank(PlanPremium))
	}
	if PlanRank("enterprise") != -1 {
		t.Fatalf("unknown plan rank = %d, want -1", PlanRank("enterprise"))
	}
}

// TestTenant_PlanAtLeast verifies tier comparison, including unknown plans.
func TestTenant_PlanAtLeast(t *testing.T) {
	tn := Tenant{Plan: PlanStandard}
	if !tn.PlanAtLeast(PlanStarter) {
		t.Errorf("standard should be at least starter")
	}
	if !tn.PlanAtLeast(PlanStandard) {
		t.Errorf("standard should be at least standard")
	}
	if tn.PlanAtLeast(PlanPremium) {
		t.Errorf("standard should not be at least premium")
	}
	unknown := Tenant{Plan: "bogus"}
	if unknown.PlanAtLeast(PlanStarter) {
		t.Errorf("unknown plan must never satisfy a tier check")
	}
}

// TestTenant_HasFlag verifies raw flag lookup.
func TestTenant_HasFlag(t *testing.T) {
	tn := Tenant{FeatureFlags: []string{"extra_lessons", "transport"}}
	if !tn.HasFlag("transport") {
		t.Errorf("expected transport flag present")
	}
	if tn.HasFlag("online_store") {
		t.Errorf("expected online_store flag absent")
	}
}
