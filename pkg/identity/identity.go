// Package identity derives display names and ages from raw patient fields.
package identity

import (
	"strings"
	"time"
)

// GenerateUserName combines the name parts into a single display string.
// Empty parts are skipped, so a missing middle name produces "First Last".
func GenerateUserName(first, middle, last string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{first, middle, last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Age returns the age in whole years as of today.
func Age(birthDate time.Time) int {
	return AgeAt(birthDate, time.Now())
}

// AgeAt returns the age in whole years at the given instant, floored when the
// instant precedes the birth date's anniversary in that year.
func AgeAt(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if now.Before(anniversary) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
