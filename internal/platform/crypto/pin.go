package crypto

import "golang.org/x/crypto/bcrypt"

// PinHasher provides an interface for hashing and comparing vault PINs.
// The PIN is a secondary, low-entropy secret, so it is only ever stored as a
// slow hash and is never retrievable in plaintext.
type PinHasher interface {
	Hash(pin string) (string, error)
	Compare(hashedPin, pin string) error
}

// BcryptPinHasher is the bcrypt implementation of PinHasher.
type BcryptPinHasher struct {
	cost int
}

// NewBcryptPinHasher creates a new BcryptPinHasher.
// A cost of 0 selects bcrypt.DefaultCost (10).
func NewBcryptPinHasher(cost int) *BcryptPinHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPinHasher{cost: cost}
}

// Hash generates a bcrypt hash of the PIN.
func (h *BcryptPinHasher) Hash(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	return string(bytes), err
}

// Compare securely compares a hashed PIN with a plaintext PIN.
// It returns nil on success and an error on failure, which prevents timing attacks.
func (h *BcryptPinHasher) Compare(hashedPin, pin string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPin), []byte(pin))
}
