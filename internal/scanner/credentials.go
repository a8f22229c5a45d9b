package scanner

import (
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const passwordLength = 16

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generatePassword returns a random alphanumeric password, the Go
// equivalent of secrets.token_urlsafe/secrets.choice in provisioner.py.
func generatePassword() (string, error) {
	buf := make([]byte, passwordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("scanner: generate password: %w", err)
	}
	var sb strings.Builder
	sb.Grow(passwordLength)
	for _, b := range buf {
		sb.WriteByte(passwordAlphabet[int(b)%len(passwordAlphabet)])
	}
	return sb.String(), nil
}

// hashPassword bcrypt-hashes a plaintext portal password for storage.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("scanner: hash password: %w", err)
	}
	return string(hash), nil
}
