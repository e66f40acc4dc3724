package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

var testWallet = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func newTestIssuer(secret string) *TokenIssuer {
	return NewTokenIssuer(&config.AuthConfig{
		Secret:      secret,
		TokenExpiry: internalcommon.NewDuration(30 * time.Minute),
	})
}

func TestTokenIssuer_IssueVerify(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer("s3cret")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	token, expiresAt, err := issuer.Issue(testWallet)
	require.NoError(t, err)
	require.Equal(t, now.Add(30*time.Minute), expiresAt)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, testWallet, got)

	// expired
	issuer.now = func() time.Time { return now.Add(31 * time.Minute) }
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// signed with another secret
	other := newTestIssuer("other")
	other.now = func() time.Time { return now }
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = other.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Disabled(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer(nil)
	require.False(t, issuer.Enabled())

	_, _, err := issuer.Issue(testWallet)
	require.ErrorIs(t, err, ErrAuthDisabled)

	_, err = issuer.Verify("anything")
	require.ErrorIs(t, err, ErrAuthDisabled)
}

func TestTokenIssuer_Authenticate(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer("s3cret")
	token, _, err := issuer.Issue(testWallet)
	require.NoError(t, err)

	tests := []struct {
		name    string
		request func() *http.Request
		wantErr error
	}{
		{
			name: "bearer header",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Authorization", "Bearer "+token)
				return r
			},
		},
		{
			name: "query parameter",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
			},
		},
		{
			name: "missing",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/ws", nil)
			},
			wantErr: ErrMissingToken,
		},
		{
			name: "garbage",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Authorization", "Bearer garbage")
				return r
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := issuer.Authenticate(tt.request())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
