// Package phone normalizes registrant phone numbers into the canonical
// digit string used to build WhatsApp deep links.
package phone

import "regexp"

var nonDigit = regexp.MustCompile(`\D`)

// Normalize strips every non-digit character from raw. A bare 10-digit
// national number gets the configured default country code prefixed; any
// other length is assumed to already carry a country code and passes
// through unchanged. Empty input yields an empty string, which callers
// must treat as a validation failure.
func Normalize(raw, defaultCountryCode string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) == 10 {
		return defaultCountryCode + digits
	}
	return digits
}
