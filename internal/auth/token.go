package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every way a token can fail verification: bad
// signature, malformed encoding, wrong signing method, missing claims.
// Callers treat all of them the same way, as "no valid identity".
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and validates HS256-signed JWTs.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenManager builds a new manager. The key must already satisfy the
// 256-bit minimum enforced by config at startup.
func NewTokenManager(key []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{key: key, ttl: ttl, now: time.Now}
}

// Claims describes the JWT payload. The roles claim is a snapshot taken at
// issuance and is informational only; the request gate re-resolves roles from
// the user store on every request.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Generate builds and signs a JWT for the username with the given role snapshot.
func (tm *TokenManager) Generate(username string, roles []string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, errors.New("username required")
	}

	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse decodes the token and verifies its signature. It fails closed: any
// parse error, signature mismatch or malformed claim set yields ErrInvalidToken
// and never the decoded claims. Expiry is checked separately so that expired
// but otherwise authentic tokens can still be inspected.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractUsername returns the verified token's subject.
func (tm *TokenManager) ExtractUsername(tokenStr string) (string, error) {
	claims, err := tm.Parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether the token verifies, its subject matches the expected
// username and it has not expired. The subject comparison is case-insensitive
// by policy; username lookup elsewhere may be case-sensitive, which is a known
// quirk kept for compatibility.
func (tm *TokenManager) IsValid(tokenStr, expectedUsername string) bool {
	claims, err := tm.Parse(tokenStr)
	if err != nil {
		return false
	}
	if !strings.EqualFold(claims.Subject, expectedUsername) {
		return false
	}
	return claims.ExpiresAt != nil && tm.now().Before(claims.ExpiresAt.Time)
}

// IsExpired reports whether the token is past its expiry. Unparseable tokens
// and tokens without an expiry count as expired.
func (tm *TokenManager) IsExpired(tokenStr string) bool {
	claims, err := tm.Parse(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !tm.now().Before(claims.ExpiresAt.Time)
}
