package authz

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/relaymesh/relaymesh/internal/errors"
)

// Claims are the JWT claims carried by caller tokens. Scopes follow the
// OAuth convention of a space-separated "scope" claim.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens and produces identities.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier over the shared signing secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify validates signature and expiry and returns the caller identity.
// The raw token is retained on the identity for relay to downstream calls.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}

	return &Identity{
		Principal: claims.Subject,
		Scopes:    parseScopes(claims.Scope),
		RawToken:  tokenString,
	}, nil
}

func parseScopes(scope string) map[string]struct{} {
	scopes := make(map[string]struct{})
	for _, s := range strings.Fields(scope) {
		scopes[s] = struct{}{}
	}
	return scopes
}

// Issuer signs HS256 bearer tokens for authenticated principals.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewIssuer creates a token issuer. A zero ttl defaults to one hour.
func NewIssuer(secret []byte, issuer string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue signs a token for the principal carrying the given scopes.
func (i *Issuer) Issue(principal string, scopes []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
