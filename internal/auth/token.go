package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the token failed verification: bad signature,
// unexpected algorithm, malformed payload, or past its expiry.
var ErrInvalidToken = errors.New("auth: invalid token")

// Credential is the verified content of a token: the subject it was issued
// to and the authority level it asserts.
type Credential struct {
	SubjectID int64
	Level     Authority
}

// tokenClaims is the JWT payload. The uid/authority field names are part of
// the wire format and shared with the judging workers.
type tokenClaims struct {
	UID   int64     `json:"uid"`
	Level Authority `json:"authority"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed credentials (HS256). It holds the
// process-wide signing secret and validity window, both read-only after
// construction, so a single manager is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration

	// now is the clock used for expiry computation and validation.
	// Overridable in tests.
	now func() time.Time
}

// NewTokenManager builds a manager from the signing secret and the validity
// window applied to every issued token.
func NewTokenManager(secret []byte, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a credential for the given subject and authority level.
// The expiry is now plus the configured validity window; it is returned so
// the transport layer can mirror it on a cookie.
func (m *TokenManager) Issue(subjectID int64, level Authority) (string, time.Time, error) {
	expiresAt := m.now().UTC().Add(m.ttl)
	claims := tokenClaims{
		UID:   subjectID,
		Level: level,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns the embedded
// credential. It trusts the signature as proof the claims were not altered
// since issuance; no storage lookup happens here. All failure modes collapse
// into ErrInvalidToken.
func (m *TokenManager) Verify(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Credential{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Credential{}, ErrInvalidToken
	}
	if !claims.Level.Valid() {
		return Credential{}, ErrInvalidToken
	}
	return Credential{SubjectID: claims.UID, Level: claims.Level}, nil
}
