// Package utils provides token creation, verification and hashing helpers.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the `type` claim. Verification rejects a token
// whose type does not match the one expected at the call site, so an access
// token can never be replayed as a refresh token or vice versa.
const (
	TypeAccess  = "ACCESS_TOKEN"
	TypeRefresh = "REFRESH_TOKEN"
)

// ErrInvalidToken is returned for any verification failure: bad signature,
// expired token, malformed claims or a type mismatch. Callers translate it
// to 401 without distinguishing the cause.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPayload is the transient identity carried inside a signed token. It
// is never persisted; revocation works by clearing the stored refresh hash.
type TokenPayload struct {
	Sub  uint64 // user id
	Name string // display label, currently the email
	Type string // TypeAccess or TypeRefresh
}

// SignedToken couples a serialized JWT with its expiry so callers can set
// cookie lifetimes without re-parsing the token.
type SignedToken struct {
	Raw string
	Exp time.Time
}

// NewToken builds and signs an HS256 JWT of the given type. The secret and
// TTL belong to the type: access and refresh tokens use independent secrets
// so the blast radius of a leak stays contained.
func NewToken(secret string, userID uint64, email, typ string, ttlSec int) (SignedToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlSec) * time.Second)
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": email,
		"type": typ,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Raw: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a token against the secret for the
// expected type and returns its payload. Any failure maps to
// ErrInvalidToken.
func VerifyToken(secret, raw, wantType string) (TokenPayload, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenPayload{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenPayload{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return TokenPayload{}, ErrInvalidToken
	}
	typ, _ := claims["type"].(string)
	if typ != wantType {
		return TokenPayload{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	return TokenPayload{Sub: uint64(sub), Name: name, Type: typ}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a refresh token as a hex
// string. Only the hash is persisted, so a stolen database row cannot be
// replayed as a live session, and lookup-by-hash stays a single indexed
// equality match.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
