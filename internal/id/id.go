package id

import "crypto/rand"

const idLength = 16

// GenerateID creates a random lowercase alphanumeric identifier, used for
// users, lessons and lesson components alike.
func GenerateID() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
