package tenant

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 120
)

// Plan tier constants. Tiers form a closed, ordered set.
const (
	PlanStarter  = "starter"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// ValidPlans contains all valid plan tiers in ascending order.
var ValidPlans = []string{PlanStarter, PlanStandard, PlanPremium}

// Domain errors
var (
	ErrEmptyName   = errors.New("tenant name cannot be empty")
	ErrNameTooLong = errors.New("tenant name cannot exceed 120 characters")
	ErrInvalidPlan = errors.New("plan must be one of: starter, standard, premium")
)

// Tenant holds state for one academy (customer organization) on the platform.
//
// FeatureFlags stores the raw optional-module identifiers enabled for this
// tenant; the feature package resolves them against the catalog.
// SubscriptionStatus is denormalized from the subscription record for cheap
// UI reads; the lifecycle engine is the only writer.
type Tenant struct {
	ID                 string
	Name               string
	Plan               string
	FeatureFlags       []string
	SubscriptionStatus string
	CreatedAt          time.Time
}

// Validate checks if the Tenant has valid data.
// PRE: Tenant struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !isValidPlan(t.Plan) {
		return ErrInvalidPlan
	}
	return nil
}

// PlanRank returns the ordinal position of a plan tier (0 = starter).
// Unknown plans rank below every valid tier.
// INVARIANT: ranks follow the order of ValidPlans
func PlanRank(plan string) int {
	for i, p := range ValidPlans {
		if p == plan {
			return i
		}
	}
	return -1
}

// PlanAtLeast returns true if the tenant's plan ranks at or above min.
// INVARIANT: Tenant fields are not mutated
func (t Tenant) PlanAtLeast(min string) bool {
	r := PlanRank(t.Plan)
	return r >= 0 && r >= PlanRank(min)
}

// HasFlag returns true if the raw flag identifier is present on the tenant.
// INVARIANT: Tenant fields are not mutated
func (t Tenant) HasFlag(id string) bool {
	for _, f := range t.FeatureFlags {
		if f == id {
			return true
		}
	}
	return false
}

func isValidPlan(plan string) bool {
	for _, p := range ValidPlans {
		if p == plan {
			return true
		}
	}
	return false
}
