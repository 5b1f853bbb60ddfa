package navigation

import (
	"academyhub/internal/domain/actor"
	"academyhub/internal/domain/feature"
)

// TableKey selects a base navigation table. StaffKind is empty for every
// role except staff.
type TableKey struct {
	Role      string
	StaffKind string
}

// terminalPaths are the fixed items that always close a navigation list.
// Feature items and default-placed items are inserted before them.
var terminalPaths = map[string]bool{
	"/settings": true,
	"/logout":   true,
}

// baseTables is the authorization policy: one fixed, ordered navigation
// list per role (per staff kind for staff). A (role, staffKind) pair with
// no entry here sees nothing; resolution fails closed, never open.
//
// NOTE: These tables are data, not code. Change what an actor sees by
// editing the table, never by branching in the resolver.
var baseTables = map[TableKey][]Item{
	{Role: actor.RolePlatformAdmin}: {
		{Label: "Overview", TargetPath: "/overview", Icon: "gauge"},
		{Label: "Academies", TargetPath: "/academies", Icon: "building"},
		{Label: "Billing", TargetPath: "/billing", Icon: "receipt"},
		{Label: "Delinquency", TargetPath: "/billing/delinquency", Icon: "bell"},
		{Label: "Audit Log", TargetPath: "/audit", Icon: "scroll"},
		{Label: "Announcements", TargetPath: "/announcements", Icon: "megaphone"},
		{Label: "Settings", TargetPath: "/settings", Icon: "cog"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleAcademyAdmin}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "Students", TargetPath: "/students", Icon: "users"},
		{Label: "Guardians", TargetPath: "/guardians", Icon: "shield"},
		{Label: "Employees", TargetPath: "/employees", Icon: "badge"},
		{Label: "Schedules", TargetPath: "/schedules", Icon: "calendar"},
		{Label: "Billing", TargetPath: "/billing", Icon: "receipt"},
		{Label: "Settings", TargetPath: "/settings", Icon: "cog"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleStaff, StaffKind: actor.StaffCoach}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "My Classes", TargetPath: "/classes", Icon: "whistle"},
		{Label: "Students", TargetPath: "/students", Icon: "users"},
		{Label: "Attendance", TargetPath: "/attendance", Icon: "check"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleStaff, StaffKind: actor.StaffFrontDesk}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "Check-In", TargetPath: "/check-in", Icon: "check"},
		{Label: "Students", TargetPath: "/students", Icon: "users"},
		{Label: "Payments", TargetPath: "/payments", Icon: "receipt"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleStaff, StaffKind: actor.StaffManager}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "Students", TargetPath: "/students", Icon: "users"},
		{Label: "Employees", TargetPath: "/employees", Icon: "badge"},
		{Label: "Schedules", TargetPath: "/schedules", Icon: "calendar"},
		{Label: "Reports", TargetPath: "/reports", Icon: "chart"},
		{Label: "Settings", TargetPath: "/settings", Icon: "cog"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleStudent}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "My Schedule", TargetPath: "/schedule", Icon: "calendar"},
		{Label: "Payments", TargetPath: "/payments", Icon: "receipt"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
	{Role: actor.RoleGuardian}: {
		{Label: "Dashboard", TargetPath: "/dashboard", Icon: "gauge"},
		{Label: "Children", TargetPath: "/children", Icon: "users"},
		{Label: "Payments", TargetPath: "/payments", Icon: "receipt"},
		{Label: "Logout", TargetPath: "/logout", Icon: "door"},
	},
}

// featureItems maps each optional module to the navigation items it
// contributes. Splicing position comes from InsertionAnchor; an anchor whose
// target is absent from the base list falls back to default placement;
// a capability is never silently dropped.
var featureItems = map[feature.ID][]Item{
	feature.ExtraLessons: {
		{Label: "Extra Lessons", TargetPath: "/extra-lessons", Icon: "plus", InsertionAnchor: "/schedules"},
	},
	feature.AdultFitness: {
		{Label: "Adult Fitness", TargetPath: "/adult-fitness", Icon: "dumbbell", InsertionAnchor: "/schedules"},
	},
	feature.Transport: {
		{Label: "Transport", TargetPath: "/transport", Icon: "bus"},
	},
	feature.OnlineStore: {
		{Label: "Store", TargetPath: "/store", Icon: "cart", InsertionAnchor: "/settings"},
	},
	feature.VideoLibrary: {
		{Label: "Video Library", TargetPath: "/library", Icon: "film"},
	},
}

// BaseTable returns a copy of the base list for a (role, staffKind) pair.
// PRE: none
// POST: Returns a fresh slice; the second result is false when no table is
// registered for the pair
func BaseTable(role, staffKind string) ([]Item, bool) {
	key := TableKey{Role: role}
	if role == actor.RoleStaff {
		key.StaffKind = staffKind
	}
	base, ok := baseTables[key]
	if !ok {
		return nil, false
	}
	out := make([]Item, len(base))
	copy(out, base)
	return out, true
}
