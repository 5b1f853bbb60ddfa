package storage

import (
	"database/sql"
	"time"
)

// NullableTime converts a time to a TEXT column value. Zero times map to
// NULL so "never happened" round-trips cleanly.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// TimeFromNull parses a nullable TEXT column back into a time.
// NULL and unparseable values map to the zero time.
func TimeFromNull(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime converts a required time column value.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime parses a required TEXT time column; unparseable values map to
// the zero time.
func ParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
