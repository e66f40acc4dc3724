package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
)

var (
	// ErrAuthDisabled is returned when no signing secret is configured.
	ErrAuthDisabled = errors.New("authentication secret not configured")

	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingToken is returned when a request carries no token.
	ErrMissingToken = errors.New("missing token")
)

// TokenIssuer mints and verifies HS256 wallet tokens whose subject is the wallet address.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer from auth configuration. cfg may be nil.
func NewTokenIssuer(cfg *config.AuthConfig) *TokenIssuer {
	if cfg == nil {
		cfg = &config.AuthConfig{}
	}
	cfg.ApplyDefaults()

	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		expiry: cfg.TokenExpiry.Duration,
		now:    time.Now,
	}
}

// Enabled reports whether a signing secret is configured.
func (ti *TokenIssuer) Enabled() bool {
	return len(ti.secret) > 0
}

// Issue returns a signed token for address and its expiry time.
func (ti *TokenIssuer) Issue(address common.Address) (string, time.Time, error) {
	if !ti.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}

	now := ti.now()
	expiresAt := now.Add(ti.expiry)
	claims := jwt.RegisteredClaims{
		Subject:   address.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses token and returns the wallet address it was issued for.
func (ti *TokenIssuer) Verify(token string) (common.Address, error) {
	if !ti.Enabled() {
		return common.Address{}, ErrAuthDisabled
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now), jwt.WithExpirationRequired())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || !common.IsHexAddress(claims.Subject) {
		return common.Address{}, ErrInvalidToken
	}

	return common.HexToAddress(claims.Subject), nil
}

// Authenticate verifies the token of r, taken from the Authorization bearer header
// or the token query parameter.
func (ti *TokenIssuer) Authenticate(r *http.Request) error {
	token := tokenFromRequest(r)
	if token == "" {
		return ErrMissingToken
	}

	_, err := ti.Verify(token)
	return err
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return r.URL.Query().Get("token")
}
