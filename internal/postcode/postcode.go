// Package postcode recognises UK postcodes in free text.
package postcode

import (
	"regexp"
	"strings"
)

// Pattern matches a UK postcode with a single space between outward and inward codes.
// Input is expected to be uppercased.
var Pattern = regexp.MustCompile(`\b[A-Z]{1,2}[0-9R][0-9A-Z]? [0-9][A-Z]{2}\b`)

// Normalize trims and uppercases a postcode.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Find returns the first postcode found in text, or an empty string.
func Find(text string) string {
	return Pattern.FindString(strings.ToUpper(text))
}

// FindAll returns every postcode in text in order of appearance.
func FindAll(text string) []string {
	return Pattern.FindAllString(strings.ToUpper(text), -1)
}
