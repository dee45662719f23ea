// ABOUTME: Canonical forms for contact emails and phone numbers
// ABOUTME: Used for duplicate detection and stored phone digits
package models

import (
	"strings"
	"unicode"
)

// MinPhoneDigits is the shortest normalised phone used for matching.
const MinPhoneDigits = 10

// NormalizeEmail lowercases and trims.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps only the digits.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
