package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used when BCRYPT_COST is outside bcrypt's range.
const DefaultBcryptCost = 10

// HashPassword bcrypts plain at cost.
func HashPassword(plain string, cost int) (string, error) {
    if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
        cost = DefaultBcryptCost
    }
    hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    return string(hash), err
}

// VerifyPassword reports whether plain matches hash.  An empty hash never
// matches.
func VerifyPassword(hash, plain string) bool {
    return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
