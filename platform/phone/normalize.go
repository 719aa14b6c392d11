// Package phone normalizes the contact numbers consumers leave on intake
// forms, so assignments and exports agree on one format per lead.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Intake is Dutch-first: bare national numbers ("0612345678") parse against NL.
const intakeRegion = "NL"

// NormalizeE164 formats a contact number to E.164 (+31612345678). Input that
// does not parse as a valid number comes back trimmed but otherwise
// untouched: intake never rejects a lead over a malformed phone number.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, intakeRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
