package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Verification outcomes. Gates collapse both into a generic unauthenticated
// response; the split exists for logging.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenClass separates the two token kinds. Each class signs with its own
// secret, so a token of one class never verifies as the other.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// Claims describes the JWT payload. Subject carries the user's public id;
// the internal numeric id never enters a token.
type Claims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies JWTs of a single class.
type TokenManager struct {
	class  TokenClass
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a manager for one token class.
func NewTokenManager(class TokenClass, secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{class: class, secret: []byte(secret), ttl: ttl}
}

// Class reports which token class this manager handles.
func (tm *TokenManager) Class() TokenClass {
	return tm.class
}

// Issue signs a token for the subject with the configured TTL.
func (tm *TokenManager) Issue(publicID, account string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Account: account,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   publicID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry and returns the claims. Expiry is
// evaluated on every call; a token past ExpiresAt fails with
// ErrTokenExpired, any other defect with ErrTokenInvalid.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
