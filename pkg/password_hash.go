package pkg

import "golang.org/x/crypto/bcrypt"

const passwordHashCost = 14

// HashPassword hashes a password for the users config file (see cmd/users).
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
