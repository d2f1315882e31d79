package goAccount

import "regexp"

var emailPattern = regexp.MustCompile(`^(?:[_A-Za-z0-9-]+(?:\.[_A-Za-z0-9-]+)*@[A-Za-z0-9-]+(?:\.[A-Za-z0-9]+)*(?:\.[A-Za-z]{2,}))$`)

// IsEmailValid reports whether s has the shape of an email address. Single-label
// hosts and numeric top-level domains are rejected.
func IsEmailValid(s string) bool {
	return emailPattern.MatchString(s)
}
