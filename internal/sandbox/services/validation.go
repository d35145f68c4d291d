// ABOUTME: Input validation for path parameters and free-text filters
// ABOUTME: Rejects malformed IDs before they reach the store or the logs

package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// ValidateID checks that id is a UUID as issued by the store.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrInvalid, sanitizeForLog(id))
	}
	return nil
}

// NormalizeQuery trims a search term and bounds its length.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(sanitizeForLog(q))
	if len(q) > 100 {
		q = q[:100]
	}
	return strings.ToLower(q)
}
