// Package utils holds the password and token helpers used by the auth
// handlers and the JWT middleware.
package utils

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/base64"
    "encoding/hex"
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way an access token can be rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// refreshBytes is the entropy of a refresh token; it encodes to 64 chars.
const refreshBytes = 48

// AccessToken is a signed JWT and the moment it stops being accepted.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is handed to the client once.  The database only ever sees
// HashRefreshRaw(Raw).
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Identity is the user information embedded in access tokens.  The mobile
// client reads id, email, role and username straight from the login
// response, so the same four fields travel inside the token.
type Identity struct {
    ID       uint64 `json:"id"`
    Email    string `json:"email"`
    Role     string `json:"role"`
    Username string `json:"username"`
}

// Claims is the decoded form of an access token.
type Claims struct {
    Identity
    jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token for who, valid for ttlMin minutes.
// The subject is the decimal user id.
func NewAccessToken(secret string, who Identity, ttlMin int) (AccessToken, error) {
    iat := time.Now().UTC()
    exp := iat.Add(time.Duration(ttlMin) * time.Minute)
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
        Identity: who,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(who.ID, 10),
            IssuedAt:  jwt.NewNumericDate(iat),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and returns its claims.  Only HS256 is
// accepted and an exp claim is mandatory.  Tokens without an id claim get
// it from the subject.
func ParseAccessToken(secret, raw string) (*Claims, error) {
    var claims Claims
    _, err := jwt.ParseWithClaims(raw, &claims,
        func(*jwt.Token) (any, error) { return []byte(secret), nil },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
    )
    if err != nil {
        return nil, ErrInvalidToken
    }
    if claims.Identity.ID == 0 {
        id, err := strconv.ParseUint(claims.Subject, 10, 64)
        if err == nil {
            claims.Identity.ID = id
        }
    }
    return &claims, nil
}

// NewRefreshToken draws a random URL-safe token that expires after
// ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    b := make([]byte, refreshBytes)
    if _, err := rand.Read(b); err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: base64.RawURLEncoding.EncodeToString(b),
        Exp: time.Now().UTC().AddDate(0, 0, ttlDays),
    }, nil
}

// HashRefreshRaw is the hex SHA-256 of a raw refresh token, the form kept
// in refresh_tokens.token_hash.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
