package models

import (
	"strings"
	"unicode/utf8"
)

// Friend represents one person in the ledger.
type Friend struct {
	// ID is the unique identifier for the friend (UUID format).
	ID string `json:"id"`

	// Name is the display name of the friend.
	Name string `json:"name"`

	// Email is the friend's email address. Optional at creation; it may be
	// backfilled later during a verified expense deletion.
	Email string `json:"email,omitempty"`

	// Avatar is the display initials, derived from Name via Initials.
	// It is always recomputed from Name, never set independently.
	Avatar string `json:"avatar"`
}

// Initials derives the avatar string for a name: the first two characters,
// upper-cased. Shorter names use what is available.
func Initials(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if utf8.RuneCountInString(name) <= 2 {
		return strings.ToUpper(name)
	}
	runes := []rune(name)
	return strings.ToUpper(string(runes[:2]))
}
