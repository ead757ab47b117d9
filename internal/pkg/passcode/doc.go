// Package passcode generates short one-time passcodes from a
// cryptographically secure random source.
package passcode
