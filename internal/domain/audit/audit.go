package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryTenant       Category = "tenant"
	CategorySubscription Category = "subscription"
	CategoryBilling      Category = "billing"
	CategorySecurity     Category = "security"
	CategorySystem       Category = "system"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionLogin      Action = "login"
	ActionLogout     Action = "logout"
	ActionTransition Action = "transition"
	ActionReject     Action = "reject"
	ActionSkip       Action = "skip"
	ActionPayment    Action = "payment"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a single append-only audit log entry. Lifecycle transitions,
// rejected transitions, and skipped tenants are all recorded here so the
// engine's "report the attempt" requirement is durable.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	TenantID     string    `json:"tenant_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description"`
	Metadata     string    `json:"metadata"`
}

// NewEvent creates a new audit event with the given timestamp.
// PRE: category and action are valid constants
// POST: Returns an Event with a fresh ID and the provided fields
func NewEvent(ts time.Time, category Category, action Action) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: ts,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
	}
}

// WithSeverity sets the severity level.
// POST: Event severity is updated
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithActor sets the acting identity. System-initiated events (the sweep)
// leave the actor empty.
// POST: Event actor field is populated
func (e Event) WithActor(actorID string) Event {
	e.ActorID = actorID
	return e
}

// WithTenant sets the tenant the event concerns.
// POST: Event tenant field is populated
func (e Event) WithTenant(tenantID string) Event {
	e.TenantID = tenantID
	return e
}

// WithResource sets resource information.
// POST: Event resource fields are populated
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
// POST: Event description is set
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
// POST: Event metadata is set
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
