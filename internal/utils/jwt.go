package utils // package utils provides helper functions for token creation, validation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for refresh tokens
    "encoding/hex"  // hex encoding functions
    "errors"        // sentinel errors for token validation
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned when a token fails signature verification
// or does not carry the expected claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived opaque token used to obtain new
// access tokens.  The Raw field contains the raw token string returned to
// the client.  The Exp field records when it expires.  In the database only
// a SHA‑256 hash of the raw string is stored, on the user record itself,
// so a stolen database dump cannot be replayed against the refresh endpoint.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.
// The JWT carries the standard claims: subject (sub), a single role claim,
// expiration (exp) and issued at (iat).  The refresh token issued alongside
// it is unrelated in content: no claim of the access token leaks into it.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time.  The ttlDays parameter controls how many days
// the refresh token stays valid; every call produces a fresh value, prior
// tokens are never reused.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// ValidateAccessToken reports whether the access token is currently fully
// valid: HMAC signature intact and the exp claim still in the future.  Any
// malformed token, wrong signing method, bad signature or expired timestamp
// yields false.  There is no partial validation.
func ValidateAccessToken(secret, raw string) bool {
    tok, err := jwt.Parse(raw, hmacKeyFunc(secret))
    return err == nil && tok.Valid
}

// SubjectIgnoringExpiry verifies the token signature but explicitly skips
// the expiry check, returning the subject (user ID) claim.  This is the
// mechanism that lets the refresh flow accept an expired access token while
// still proving it was legitimately issued: the signature alone establishes
// provenance, without a server-side token store.  ErrInvalidToken is
// returned when the signature does not verify or the sub claim is absent.
func SubjectIgnoringExpiry(secret, raw string) (uint64, error) {
    tok, err := jwt.Parse(raw, hmacKeyFunc(secret), jwt.WithoutClaimsValidation())
    if err != nil || !tok.Valid {
        return 0, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, ErrInvalidToken
    }
    // Numeric claims decode as float64 under MapClaims.
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return 0, ErrInvalidToken
    }
    return uint64(sub), nil
}

// RoleIgnoringExpiry is the companion of SubjectIgnoringExpiry for the role
// claim.  It shares the same signature-only verification semantics.
func RoleIgnoringExpiry(secret, raw string) (string, error) {
    tok, err := jwt.Parse(raw, hmacKeyFunc(secret), jwt.WithoutClaimsValidation())
    if err != nil || !tok.Valid {
        return "", ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", ErrInvalidToken
    }
    role, ok := claims["role"].(string)
    if !ok || role == "" {
        return "", ErrInvalidToken
    }
    return role, nil
}

// hmacKeyFunc returns the jwt.Keyfunc used for all parses.  It pins the
// signing method to HMAC so a token signed with another algorithm is
// rejected before the key is ever consulted.
func hmacKeyFunc(secret string) jwt.Keyfunc {
    return func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.  Only the hash is persisted; comparing hashes is equivalent to
// the byte-for-byte comparison of the raw values.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
