package notice

import (
	"errors"
	"strings"
	"time"
)

// Audience constants: who a published announcement is shown to.
const (
	AudiencePlatform = "platform" // platform admins only
	AudienceAdmins   = "admins"   // academy admins and managers
	AudienceEveryone = "everyone"
)

// Notice statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ValidAudiences contains all valid audience values.
var ValidAudiences = []string{AudiencePlatform, AudienceAdmins, AudienceEveryone}

// ValidStatuses contains all valid notice statuses.
var ValidStatuses = []string{StatusDraft, StatusPublished}

// Domain errors
var (
	ErrEmptyTitle       = errors.New("announcement title cannot be empty")
	ErrEmptyBody        = errors.New("announcement body cannot be empty")
	ErrInvalidAudience  = errors.New("audience must be one of: platform, admins, everyone")
	ErrInvalidStatus    = errors.New("status must be one of: draft, published")
	ErrAlreadyPublished = errors.New("announcement is already published")
)

// Notice is a platform announcement surfaced on role dashboards. The body
// is markdown; rendering happens at the HTTP layer.
type Notice struct {
	ID          string
	Title       string
	Body        string
	Audience    string
	Status      string
	PublishedAt time.Time // zero while draft
	CreatedAt   time.Time
}

// Validate checks if the Notice has valid data.
// PRE: Notice struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notice) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(n.Body) == "" {
		return ErrEmptyBody
	}
	if !contains(ValidAudiences, n.Audience) {
		return ErrInvalidAudience
	}
	if !contains(ValidStatuses, n.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Publish transitions a draft announcement to published.
// PRE: Notice is a draft
// POST: Status is published, PublishedAt is set
func (n *Notice) Publish(now time.Time) error {
	if n.Status == StatusPublished {
		return ErrAlreadyPublished
	}
	n.Status = StatusPublished
	n.PublishedAt = now
	return nil
}

// VisibleTo returns true if a published announcement targets the role.
// INVARIANT: Notice fields are not mutated
func (n Notice) VisibleTo(role string, staffKind string) bool {
	if n.Status != StatusPublished {
		return false
	}
	switch n.Audience {
	case AudienceEveryone:
		return true
	case AudienceAdmins:
		return role == "platform_admin" || role == "academy_admin" ||
			(role == "staff" && staffKind == "manager")
	case AudiencePlatform:
		return role == "platform_admin"
	}
	return false
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
