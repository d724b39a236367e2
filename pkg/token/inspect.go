package token

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials are the authorization parameters embedded in a purchase URL.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// ExtractCredentials pulls the token and refreshToken query parameters out
// of a purchase URL.
func ExtractCredentials(rawValue string) (*Credentials, error) {
	u, err := url.Parse(rawValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase URL: %w", err)
	}

	q := u.Query()
	return &Credentials{
		AccessToken:  q.Get("token"),
		RefreshToken: q.Get("refreshToken"),
	}, nil
}

// Claims holds the subset of JWT claims surfaced for inspection.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// InspectClaims parses a credential as a JWT WITHOUT validation, for claim
// inspection only. The purchase token is opaque by contract; this exists so
// operators can peek at expiry and issuer when the credential happens to be
// a JWT. Returns an error only for strings that are not JWTs at all.
func InspectClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential as JWT: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from credential")
	}

	claims := &Claims{}

	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := mapClaims["iss"].(string); ok {
		claims.Issuer = iss
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if iat, ok := mapClaims["iat"].(float64); ok {
		claims.IssuedAt = time.Unix(int64(iat), 0)
	}

	return claims, nil
}
