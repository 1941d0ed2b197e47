// Package identity talks to the external identity provider: it verifies the
// bearer tokens the provider issues and writes role claims back to it.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

var ErrInvalidToken = errors.New("invalid bearer token")

const leeway = 30 * time.Second

// Claims is the token payload. The provider may carry the role at the top
// level or inside app_metadata; app_metadata wins.
type Claims struct {
	Email       string         `json:"email,omitempty"`
	Role        string         `json:"role,omitempty"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) roleClaim() string {
	if r, ok := c.AppMetadata["role"].(string); ok && r != "" {
		return r
	}

	return c.Role
}

type Verifier struct {
	key    any
	parser *jwt.Parser
}

// NewVerifier prefers an RS256 public key when one is configured and falls
// back to an HS256 shared secret.
func NewVerifier(conf *config.IdentityConfig) (*Verifier, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if conf.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(conf.Issuer))
	}
	if conf.Audience != "" {
		opts = append(opts, jwt.WithAudience(conf.Audience))
	}

	var key any
	switch {
	case conf.PublicKeyPath != "":
		pem, err := os.ReadFile(conf.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile -> %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("jwt.ParseRSAPublicKeyFromPEM -> %w", err)
		}
		key = pub
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	case conf.HMACSecret != "":
		key = []byte(conf.HMACSecret)
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	default:
		return nil, errors.New("no token verification key configured")
	}

	return &Verifier{
		key:    key,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (v *Verifier) Verify(raw string) (domain.Identity, error) {
	claims := &Claims{}

	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		RoleClaim: claims.roleClaim(),
	}, nil
}
