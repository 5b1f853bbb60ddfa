package feature

import "academyhub/internal/domain/tenant"

// Set is the enabled-module set for one tenant.
type Set map[ID]struct{}

// Contains returns true if the identifier is in the set.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Resolve returns the optional modules enabled for the tenant.
//
// Fail closed: a nil or invalid tenant record, an identifier outside the
// catalog, or a module above the tenant's plan tier all resolve to "not
// enabled". Resolution never returns an error: a missing or ambiguous
// tenant must never expose an optional module by default.
// INVARIANT: t is not mutated; identical inputs yield identical output
func Resolve(t *tenant.Tenant) Set {
	enabled := Set{}
	if t == nil {
		return enabled
	}
	if err := t.Validate(); err != nil {
		return enabled
	}
	for _, flag := range t.FeatureFlags {
		def, ok := DefinitionFor(ID(flag))
		if !ok {
			continue
		}
		if !t.PlanAtLeast(def.MinPlan) {
			continue
		}
		enabled[def.ID] = struct{}{}
	}
	return enabled
}
