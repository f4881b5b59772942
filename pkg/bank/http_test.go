package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
)

func newTestClient(t *testing.T, url string, exponent int32) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(config.BankConfig{
		Mode:             config.BankModeHTTP,
		BaseURL:          url,
		APIKey:           "secret",
		Timeout:          2 * time.Second,
		CurrencyExponent: exponent,
		BreakerTimeout:   time.Minute,
		BreakerMinCalls:  3,
	}, metrics.NewBreakerMetrics(prometheus.NewRegistry()), nil)
	require.NoError(t, err)
	return c
}

func topUp() Transfer {
	return Transfer{MemberID: uuid.New(), Amount: 100, Description: "top up", Reference: uuid.NewString()}
}

func TestHTTPClientDepositSendsMajorUnits(t *testing.T) {
	member := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, depositPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "pay-42", r.Header.Get("Idempotency-Key"))

		var body transferRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, member.String(), body.MemberID)
		assert.Equal(t, "12.34", body.Amount)
		assert.Equal(t, "payout", body.Description)
		assert.Equal(t, "pay-42", body.Reference)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transferResponse{TransactionID: "bank-tx-1", Status: "settled"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2)
	ref, err := client.DepositToMember(context.Background(), Transfer{MemberID: member, Amount: 1234, Description: "payout", Reference: "pay-42"})
	require.NoError(t, err)
	require.Equal(t, "bank-tx-1", ref)
}

func TestHTTPClientDeclineDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{Code: "NSF", Message: "insufficient funds"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	for i := 0; i < 5; i++ {
		_, err := client.WithdrawFromMember(context.Background(), topUp())
		require.ErrorIs(t, err, ErrDeclined)
	}
	require.Equal(t, gobreaker.StateClosed, client.State())
}

func TestHTTPClientOpensBreakerOnUpstreamFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	for i := 0; i < 3; i++ {
		_, err := client.WithdrawFromMember(context.Background(), topUp())
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.WithdrawFromMember(context.Background(), topUp())
	require.True(t, errors.Is(err, gobreaker.ErrOpenState))
	require.Equal(t, int32(3), calls.Load())
}

func TestHTTPClientChecksTransferStatus(t *testing.T) {
	var status atomic.Value
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transferResponse{TransactionID: "bank-tx-9", Status: status.Load().(string)})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	transfer := topUp()

	status.Store("declined")
	_, err := client.WithdrawFromMember(context.Background(), transfer)
	require.ErrorIs(t, err, ErrDeclined)

	status.Store("pending")
	_, err = client.WithdrawFromMember(context.Background(), transfer)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDeclined)

	status.Store("completed")
	ref, err := client.WithdrawFromMember(context.Background(), transfer)
	require.NoError(t, err)
	require.Equal(t, "bank-tx-9", ref)

	require.Equal(t, []string{transfer.Reference, transfer.Reference, transfer.Reference}, keys)
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(config.BankConfig{Mode: config.BankModeHTTP}, nil, nil)
	require.Error(t, err)
}

func TestSandboxApprovesPositiveAmounts(t *testing.T) {
	sbx := NewSandbox(0, nil)
	ref, err := sbx.WithdrawFromMember(context.Background(), Transfer{MemberID: uuid.New(), Amount: 10, Description: "top up"})
	require.NoError(t, err)
	require.Contains(t, ref, sandboxPrefix)

	_, err = sbx.DepositToMember(context.Background(), Transfer{MemberID: uuid.New(), Description: "payout"})
	require.ErrorIs(t, err, ErrDeclined)
}

func TestMajorUnits(t *testing.T) {
	require.Equal(t, "500", MajorUnits(500, 0).String())
	require.Equal(t, "5", MajorUnits(500, 2).String())
	require.Equal(t, "0.05", MajorUnits(5, 2).String())
}
