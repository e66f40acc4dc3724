package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/hub"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	rpcmocks "github.com/goran-ethernal/DonationIndexor/internal/rpc/mocks"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testAPIConfig(requireAuth bool) *config.APIConfig {
	cfg := &config.APIConfig{
		Enabled:       true,
		ListenAddress: "127.0.0.1:0",
		Auth: &config.AuthConfig{
			Secret:              "s3cret",
			RequireForWebSocket: requireAuth,
		},
		WebSocket: &config.WebSocketConfig{
			SendBuffer:   4,
			WriteTimeout: common.NewDuration(time.Second),
			PingInterval: common.NewDuration(time.Second),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg := testAPIConfig(false)
	cfg.ReadTimeout = common.NewDuration(5 * time.Second)
	cfg.IdleTimeout = common.NewDuration(90 * time.Second)

	server := NewServer(cfg, Dependencies{Store: newTestStore(t)}, logger.NewNopLogger())

	require.NotNil(t, server.handler)
	require.Equal(t, "127.0.0.1:0", server.server.Addr)
	require.Equal(t, 5*time.Second, server.server.ReadTimeout)
	require.Equal(t, 15*time.Second, server.server.WriteTimeout)
	require.Equal(t, 90*time.Second, server.server.IdleTimeout)
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	client := rpcmocks.NewChainClient(t)
	client.EXPECT().LatestBlock(mock.Anything).Return(uint64(77), nil).Once()

	server := NewServer(testAPIConfig(false), Dependencies{
		Chain:    client,
		Store:    newTestStore(t),
		Indexer:  fakeIndexer{state: "polling"},
		Hub:      hub.New(logger.NewNopLogger()),
		Contract: testContract,
	}, logger.NewNopLogger())

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		contains       string
	}{
		{name: "health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK, contains: `"indexer_state":"polling"`},
		{name: "latest block", method: http.MethodGet, path: "/api/v1/blockchain/block/latest", expectedStatus: http.StatusOK, contains: `"block_number":77`},
		{name: "contracts", method: http.MethodGet, path: "/api/v1/blockchain/contracts/addresses", expectedStatus: http.StatusOK, contains: testContract.Hex()},
		{name: "login", method: http.MethodPost, path: "/api/v1/auth/login", body: `{"wallet_address":"` + testWallet.Hex() + `"}`, expectedStatus: http.StatusOK, contains: "access_token"},
		{name: "login wrong method", method: http.MethodGet, path: "/api/v1/auth/login", expectedStatus: http.StatusMethodNotAllowed},
		{name: "swagger spec", method: http.MethodGet, path: "/swagger/doc.json", expectedStatus: http.StatusOK, contains: "DonationIndexor API"},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Contains(t, string(body), tt.contains)
		})
	}
}

func TestServer_WebSocketSubscription(t *testing.T) {
	t.Parallel()

	h := hub.New(logger.NewNopLogger())
	cfg := testAPIConfig(true)
	server := NewServer(cfg, Dependencies{Store: newTestStore(t), Hub: h}, logger.NewNopLogger())

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	// token required
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token, _, err := NewTokenIssuer(cfg.Auth).Issue(testWallet)
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Authorization": {"Bearer " + token}})
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Broadcast(donation.Notification{
		Type: donation.NotificationType,
		Data: donation.NotificationData{Cause: "water", Amount: "1000"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got donation.Notification
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, donation.NotificationType, got.Type)
	require.Equal(t, "water", got.Data.Cause)
	require.Equal(t, "1000", got.Data.Amount)
}

func TestServer_Start_Disabled(t *testing.T) {
	t.Parallel()

	cfg := testAPIConfig(false)
	cfg.Enabled = false
	server := NewServer(cfg, Dependencies{Store: newTestStore(t)}, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, server.Start(ctx))
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	server := NewServer(testAPIConfig(false), Dependencies{Store: newTestStore(t)}, logger.NewNopLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
