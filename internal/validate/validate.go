// Package validate provides the pure input validators used by the dialog engine.
//
// Every function here is side-effect free and operates only on the supplied
// text, so step handlers can be tested in isolation.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
	digitsRegex   = regexp.MustCompile(`[^0-9]`)
	nonAmountChar = regexp.MustCompile(`[^0-9.]`)
)

// Email reports whether s looks like a deliverable email address.
func Email(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// MinLen reports whether s has at least n characters after trimming.
func MinLen(s string, n int) bool {
	return len(strings.TrimSpace(s)) >= n
}

// Phone reports whether s contains at least 6 digits once every
// non-numeric character is stripped.
func Phone(s string) bool {
	return len(digitsRegex.ReplaceAllString(s, "")) >= 6
}

// Password enforces the signup password policy: at least 6 characters with
// one uppercase letter, one digit, and one special character from !@#$&*.
func Password(s string) bool {
	if len(s) < 6 {
		return false
	}
	var upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("!@#$&*", r):
			special = true
		}
	}
	return upper && digit && special
}

// DateOfBirth validates an MM/DD/YYYY date of birth. It rejects
// syntactically well-formed but calendar-invalid dates (02/30/2024) and
// years outside [1900, current year].
func DateOfBirth(s string) bool {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}
	if year < 1900 || year > time.Now().Year() {
		return false
	}
	// Reconstruct the date and compare components: time.Date normalizes
	// overflows (Feb 30 becomes Mar 1), which exposes invalid calendar dates.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == time.Month(month) && t.Day() == day
}

// Amount extracts a positive numeric amount from free text. All characters
// other than digits and a decimal point are stripped before parsing. A parse
// failure or non-positive result reports ok=false, never zero.
func Amount(s string) (float64, bool) {
	cleaned := nonAmountChar.ReplaceAllString(s, "")
	if cleaned == "" || strings.Count(cleaned, ".") > 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Selection parses a 1-based numeric menu selection and reports whether it
// falls inside [1, max].
func Selection(s string, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}
