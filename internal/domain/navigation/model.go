package navigation

// Item is one entry in an actor's navigation model. Items are pure data,
// produced fresh per resolution; they have no lifecycle of their own.
//
// InsertionAnchor is set only on feature-flagged items: it names the
// TargetPath of a fixed item the feature item should be spliced immediately
// before. An empty anchor means default placement (end of list, before the
// terminal tail).
type Item struct {
	Label           string `json:"label"`
	TargetPath      string `json:"targetPath"`
	Icon            string `json:"iconRef"`
	InsertionAnchor string `json:"-"`
}

// Model is the navigation read model exposed to the UI layer: the ordered
// items plus the delinquency badge count slot.
type Model struct {
	Items      []Item `json:"items"`
	BadgeCount int    `json:"badgeCount"`
}
