// Package mask produces display-safe redactions of identifiers for logs and
// responses. All functions are pure.
package mask

import "strings"

// Phone masks the middle of a phone number, keeping the prefix and the last
// 4 digits: +919876543210 becomes +9198****3210.
func Phone(phone string) string {
	if len(phone) < 10 {
		return "****"
	}
	return phone[:len(phone)-8] + "****" + phone[len(phone)-4:]
}

// Email masks the local part of an email address:
// john.doe@example.com becomes j***e@example.com.
func Email(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "****"
	}

	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}

// Identifier detects whether the identifier is an email or a phone number and
// masks it accordingly.
func Identifier(identifier string) string {
	if identifier == "" {
		return "****"
	}
	if strings.Contains(identifier, "@") {
		return Email(identifier)
	}
	return Phone(identifier)
}
