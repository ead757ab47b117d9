// Package uid generates opaque identifiers.
package uid

// StringID generates opaque string identifiers.
type StringID interface {
	// Generate returns a new identifier.
	Generate() string
}
