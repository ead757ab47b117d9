package hash

// Hash defines the contract for one-way hashing and verification of secrets.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(str string) ([]byte, error)
	// Verify checks if the given plaintext string matches the hashed value.
	// Implementations compare in constant time.
	Verify(hashed, str string) bool
}
