package security

import "golang.org/x/crypto/bcrypt"

// bcryptCost defines the bcrypt work factor.
const bcryptCost = 12

// pinCost is lower than bcryptCost: shop PINs are short-lived, staff-held
// codes verified on every redemption, so the work factor trades strength
// for latency at the counter.
const pinCost = 10

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPIN hashes a shop redemption PIN.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), pinCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPIN compares a PIN hash with a plaintext PIN.
func CheckPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
