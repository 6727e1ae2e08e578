package helpers

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired marks a well-formed, correctly signed token whose
	// expiry has passed. Callers treat this as a normal condition.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers everything else: bad structure, wrong
	// signing method, signature mismatch.
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the claim set embedded in every issued token. The subject
// registered claim carries the username.
type Claims struct {
	UserID int64 `json:"idUser"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies bearer tokens with a process-wide HS256 key.
// The key is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	key []byte
	ttl time.Duration
}

func NewTokenCodec(key []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{key: key, ttl: ttl}
}

// NewSigningKey generates a fresh random HS256 key. It is created once at
// process start and held only in memory, so tokens issued before a restart
// do not survive it.
func NewSigningKey() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Issue builds and signs a token for the given subject.
func (c *TokenCodec) Issue(username string, userID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// Parse verifies signature and structure and returns the claims. It fails
// with ErrTokenExpired for an otherwise valid token past its expiry and
// ErrTokenMalformed for anything else.
func (c *TokenCodec) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !tkn.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// IsExpired reports whether a signature-correct token has passed its expiry.
// Malformed tokens count as expired.
func (c *TokenCodec) IsExpired(token string) bool {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !time.Now().Before(claims.ExpiresAt.Time)
}

// ExtractUsername returns the subject of a parsed token.
func (c *TokenCodec) ExtractUsername(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractUserID returns the idUser claim of a parsed token.
func (c *TokenCodec) ExtractUserID(token string) (int64, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Validate is the single entry point for the request gate: true iff the
// token parses, is unexpired, and its subject equals username exactly.
func (c *TokenCodec) Validate(token, username string) bool {
	claims, err := c.Parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == username
}
