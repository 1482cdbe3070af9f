package auth

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeEmail trims and case-folds an email address so that lookups and
// the uniqueness constraint agree on one spelling.
func NormalizeEmail(email string) string {
	// Casers are stateful; one per call.
	return cases.Fold().String(strings.TrimSpace(email))
}
