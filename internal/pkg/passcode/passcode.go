package passcode

import (
	"crypto/rand"
	"math/big"
)

const (
	digits       = "0123456789"
	alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// CharsetDigits selects numeric passcodes.
	CharsetDigits = "digits"
	// CharsetAlphanumeric selects digit+uppercase passcodes, which are harder
	// to brute force at the same length.
	CharsetAlphanumeric = "alphanumeric"

	minLength     = 4
	maxLength     = 8
	defaultLength = 6
)

// Generator defines the contract for producing one-time passcodes.
type Generator interface {
	// Generate returns a fresh passcode. Outputs are unpredictable from
	// process start time, sequence, or prior outputs.
	Generate() (string, error)
}

// Random implements Generator using crypto/rand.
type Random struct {
	length  int
	charset string
}

// NewRandom constructs a Random generator.
//
// Lengths outside 4-8 fall back to 6. Any charset other than
// CharsetAlphanumeric selects digits.
func NewRandom(length int, charset string) *Random {
	if length < minLength || length > maxLength {
		length = defaultLength
	}

	chars := digits
	if charset == CharsetAlphanumeric {
		chars = alphanumeric
	}

	return &Random{length: length, charset: chars}
}

// Generate returns a fresh passcode of the configured length.
func (r *Random) Generate() (string, error) {
	max := big.NewInt(int64(len(r.charset)))
	out := make([]byte, r.length)

	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = r.charset[n.Int64()]
	}

	return string(out), nil
}
