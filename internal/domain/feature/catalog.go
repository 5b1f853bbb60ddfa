package feature

import "academyhub/internal/domain/tenant"

// ID is the stable identifier of an optional module.
type ID string

// Optional module identifiers. The catalog is closed; unknown identifiers on
// a tenant record are ignored rather than enabled.
const (
	ExtraLessons ID = "extra_lessons"
	AdultFitness ID = "adult_fitness"
	Transport    ID = "transport"
	OnlineStore  ID = "online_store"
	VideoLibrary ID = "video_library"
)

// Definition describes one optional module and the minimum plan tier that
// may enable it.
type Definition struct {
	ID          ID
	Description string
	MinPlan     string
}

// Catalog returns the known optional modules in their canonical order.
//
// This order is load-bearing: navigation resolution iterates the catalog so
// that feature items splice deterministically regardless of how the enabled
// set was built. As new modules are added, append to this list.
func Catalog() []Definition {
	return []Definition{
		{
			ID:          ExtraLessons,
			Description: "Extra lessons (one-on-one bookings, catch-up sessions)",
			MinPlan:     tenant.PlanStarter,
		},
		{
			ID:          AdultFitness,
			Description: "Adult fitness track (adult classes, separate schedules)",
			MinPlan:     tenant.PlanStandard,
		},
		{
			ID:          Transport,
			Description: "Transport (pickup routes, driver rosters)",
			MinPlan:     tenant.PlanStandard,
		},
		{
			ID:          OnlineStore,
			Description: "Online store (uniforms, equipment)",
			MinPlan:     tenant.PlanPremium,
		},
		{
			ID:          VideoLibrary,
			Description: "Video library (technique clips, session recordings)",
			MinPlan:     tenant.PlanPremium,
		},
	}
}

// DefinitionFor returns the catalog definition for an identifier.
// PRE: none
// POST: Returns the definition and true, or zero value and false if unknown
func DefinitionFor(id ID) (Definition, bool) {
	for _, d := range Catalog() {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Known returns true if the identifier is part of the catalog.
func Known(id ID) bool {
	_, ok := DefinitionFor(id)
	return ok
}
