package security

import "golang.org/x/crypto/bcrypt"

// bcrypt cost used for newly registered accounts. Existing hashes keep
// whatever cost they were created with; CompareHashAndPassword reads the
// cost out of the hash itself.
const hashCost = 10

// HashPassword hashes a plaintext password with bcrypt and a random salt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash with a plaintext candidate.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
