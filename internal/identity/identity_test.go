package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestFromClaims_FallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		meta   Metadata
		idData Metadata
		email  string
		want   string
	}{
		{
			name:  "full name wins",
			meta:  Metadata{FullName: "María Araya", Name: "maria"},
			email: "maria@araya.cl",
			want:  "María Araya",
		},
		{
			name:  "short name next",
			meta:  Metadata{Name: "maria"},
			email: "maria@araya.cl",
			want:  "maria",
		},
		{
			name:   "identity full name next",
			idData: Metadata{FullName: "María Araya", Name: "maria"},
			email:  "maria@araya.cl",
			want:   "María Araya",
		},
		{
			name:   "identity short name next",
			idData: Metadata{Name: "maria"},
			email:  "maria@araya.cl",
			want:   "maria",
		},
		{
			name:  "email local part next",
			email: "contacto@araya.cl",
			want:  "contacto",
		},
		{
			name: "generic label last",
			want: FallbackName,
		},
		{
			name:   "whitespace names are skipped",
			meta:   Metadata{FullName: "   ", Name: "  "},
			idData: Metadata{FullName: " "},
			email:  "x@y.cl",
			want:   "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromClaims(tt.meta, tt.idData, tt.email)
			if got.Name != tt.want {
				t.Errorf("FromClaims() Name = %q, want %q", got.Name, tt.want)
			}
			if got.Email != tt.email {
				t.Errorf("FromClaims() Email = %q, want %q", got.Email, tt.email)
			}
		})
	}
}

func TestFromClaims_AvatarAliases(t *testing.T) {
	tests := []struct {
		name   string
		meta   Metadata
		idData Metadata
		want   string
	}{
		{
			name: "profile avatar_url wins",
			meta: Metadata{AvatarURL: "https://a/1.png", Picture: "https://a/2.png"},
			want: "https://a/1.png",
		},
		{
			name: "profile picture next",
			meta: Metadata{Picture: "https://a/2.png"},
			want: "https://a/2.png",
		},
		{
			name:   "identity avatar_url next",
			idData: Metadata{AvatarURL: "https://a/3.png", Picture: "https://a/4.png"},
			want:   "https://a/3.png",
		},
		{
			name:   "identity picture last",
			idData: Metadata{Picture: "https://a/4.png"},
			want:   "https://a/4.png",
		},
		{
			name: "no avatar anywhere",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromClaims(tt.meta, tt.idData, "maria@araya.cl")
			if got.Avatar != tt.want {
				t.Errorf("FromClaims() Avatar = %q, want %q", got.Avatar, tt.want)
			}
		})
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseToken(t *testing.T) {
	const secret = "test-secret"

	signed := signToken(t, secret, jwt.MapClaims{
		"email": "maria@araya.cl",
		"user_metadata": map[string]any{
			"full_name":  "María Araya",
			"avatar_url": "https://example.com/a.png",
		},
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	user, err := ParseToken(signed, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if user.Name != "María Araya" {
		t.Errorf("Name = %q, want María Araya", user.Name)
	}
	if user.Email != "maria@araya.cl" {
		t.Errorf("Email = %q", user.Email)
	}
	if user.Avatar != "https://example.com/a.png" {
		t.Errorf("Avatar = %q", user.Avatar)
	}
}

func TestParseToken_IdentityDataFallback(t *testing.T) {
	const secret = "test-secret"

	// Bare user_metadata, profile only present on the linked identity.
	signed := signToken(t, secret, jwt.MapClaims{
		"email":         "maria@araya.cl",
		"user_metadata": map[string]any{},
		"identities": []any{
			map[string]any{
				"identity_data": map[string]any{
					"full_name": "María Araya",
					"picture":   "https://example.com/p.png",
				},
			},
		},
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	user, err := ParseToken(signed, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if user.Name != "María Araya" {
		t.Errorf("Name = %q, want identity_data full name", user.Name)
	}
	if user.Avatar != "https://example.com/p.png" {
		t.Errorf("Avatar = %q, want identity_data picture", user.Avatar)
	}
}

func TestParseToken_RejectsBadSignature(t *testing.T) {
	signed := signToken(t, "secret-a", jwt.MapClaims{
		"email": "x@y.cl",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	if _, err := ParseToken(signed, "secret-b"); err == nil {
		t.Fatal("ParseToken() should reject a token signed with another secret")
	}
}

func TestParseToken_RejectsExpired(t *testing.T) {
	const secret = "test-secret"
	signed := signToken(t, secret, jwt.MapClaims{
		"email": "x@y.cl",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := ParseToken(signed, secret); err == nil {
		t.Fatal("ParseToken() should reject an expired token")
	}
}

func TestParseToken_RejectsUnsignedAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"email": "x@y.cl"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ParseToken(signed, "test-secret"); err == nil {
		t.Fatal("ParseToken() should reject the none algorithm")
	}
}
