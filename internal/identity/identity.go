package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// FallbackName is shown when a token carries no usable display name.
const FallbackName = "Usuario"

var ErrInvalidToken = errors.New("invalid session token")

// User is the identity shown in the dashboard header.
type User struct {
	Name   string
	Email  string
	Avatar string
}

// Metadata is a profile block an auth provider embeds in its tokens,
// both as user_metadata and inside each linked identity. Picture is
// the OIDC alias some providers use instead of avatar_url.
type Metadata struct {
	FullName  string `json:"full_name"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Picture   string `json:"picture"`
}

// identityEntry is one linked provider identity; its identity_data
// carries the same aliased profile fields as user_metadata.
type identityEntry struct {
	IdentityData Metadata `json:"identity_data"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email        string          `json:"email"`
	UserMetadata Metadata        `json:"user_metadata"`
	Identities   []identityEntry `json:"identities"`
}

// FromClaims resolves the display identity from token claims. The name
// falls back through the profile's full name and short name, then the
// first linked identity's aliases, then the email local part, before
// settling on the generic label. The avatar walks avatar_url and
// picture through the same two tiers.
func FromClaims(meta, identityData Metadata, email string) User {
	name := firstNonEmpty(meta.FullName, meta.Name, identityData.FullName, identityData.Name)
	if name == "" && email != "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if name == "" {
		name = FallbackName
	}

	return User{
		Name:   name,
		Email:  email,
		Avatar: firstNonEmpty(meta.AvatarURL, meta.Picture, identityData.AvatarURL, identityData.Picture),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// ParseToken verifies an HS256 session token and returns the identity
// it carries.
func ParseToken(tokenString, secret string) (User, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return User{}, ErrInvalidToken
	}

	var identityData Metadata
	if len(claims.Identities) > 0 {
		identityData = claims.Identities[0].IdentityData
	}

	return FromClaims(claims.UserMetadata, identityData, claims.Email), nil
}
