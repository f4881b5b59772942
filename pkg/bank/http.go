package bank

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
)

const (
	breakerName      = "bank"
	withdrawPath     = "/v1/transfers/withdraw"
	depositPath      = "/v1/transfers/deposit"
	halfOpenRequests = 1
	failureWindow    = 60 * time.Second
	tripRatio        = 0.6
)

type transferRequest struct {
	MemberID    string `json:"member_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
}

type transferResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPClient calls the provider's REST API through a circuit breaker.
type HTTPClient struct {
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.BreakerMetrics
	logg     *logger.Logger
	exponent int32
}

// NewHTTPClient builds the provider client from config.
func NewHTTPClient(cfg config.BankConfig, m *metrics.BreakerMetrics, logg *logger.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("bank base url is required")
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	minCalls := cfg.BreakerMinCalls
	if minCalls == 0 {
		minCalls = 3
	}

	c := &HTTPClient{
		http:     rc,
		metrics:  m,
		logg:     logg,
		exponent: cfg.CurrencyExponent,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: halfOpenRequests,
		Interval:    failureWindow,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minCalls {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= tripRatio
		},
		OnStateChange: c.onStateChange,
	})
	m.SetState(breakerName, metrics.BreakerClosed)
	return c, nil
}

func (c *HTTPClient) WithdrawFromMember(ctx context.Context, t Transfer) (string, error) {
	return c.transfer(ctx, withdrawPath, t)
}

func (c *HTTPClient) DepositToMember(ctx context.Context, t Transfer) (string, error) {
	return c.transfer(ctx, depositPath, t)
}

// State reports the breaker state, mainly for readiness checks.
func (c *HTTPClient) State() gobreaker.State {
	return c.breaker.State()
}

func (c *HTTPClient) transfer(ctx context.Context, path string, t Transfer) (string, error) {
	body := transferRequest{
		MemberID:    t.MemberID.String(),
		Amount:      MajorUnits(t.Amount, c.exponent).String(),
		Description: t.Description,
		Reference:   t.Reference,
	}
	key := t.Reference
	if key == "" {
		key = uuid.NewString()
	}

	// Declines count as breaker successes; only transport and 5xx failures trip it.
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var (
			result  transferResponse
			failure errorResponse
		)
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Idempotency-Key", key).
			SetBody(body).
			SetResult(&result).
			SetError(&failure).
			Post(path)
		if err != nil {
			return nil, fmt.Errorf("bank %s: %w", path, err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("bank %s: upstream status %d", path, resp.StatusCode())
		}
		if resp.IsError() {
			return transferOutcome{declined: &declinedError{status: resp.StatusCode(), code: failure.Code, message: failure.Message}}, nil
		}
		return transferOutcome{result: result}, nil
	})
	if err != nil {
		c.metrics.IncFailure(breakerName)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("bank unavailable: %w", err)
		}
		return "", err
	}

	outcome := out.(transferOutcome)
	if outcome.declined != nil {
		return "", outcome.declined
	}
	result := outcome.result
	switch strings.ToLower(strings.TrimSpace(result.Status)) {
	case "settled", "completed", "succeeded", "approved":
	case "declined", "rejected", "failed":
		return "", &declinedError{status: http.StatusOK, code: result.Status, message: "transfer " + result.Status}
	default:
		return "", fmt.Errorf("bank %s: unexpected transfer status %q", path, result.Status)
	}
	if strings.TrimSpace(result.TransactionID) == "" {
		return "", fmt.Errorf("bank %s: response missing transaction id", path)
	}
	return result.TransactionID, nil
}

func (c *HTTPClient) onStateChange(name string, from, to gobreaker.State) {
	state := metrics.BreakerClosed
	switch to {
	case gobreaker.StateOpen:
		state = metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		state = metrics.BreakerHalfOpen
	}
	c.metrics.SetState(name, state)

	if c.logg != nil {
		ctx := c.logg.WithFields(context.Background(), map[string]any{
			"circuit": name,
			"from":    from.String(),
			"to":      to.String(),
		})
		c.logg.Warn(ctx, "bank circuit breaker state changed")
	}
}

type transferOutcome struct {
	result   transferResponse
	declined *declinedError
}

type declinedError struct {
	status  int
	code    string
	message string
}

func (e *declinedError) Error() string {
	return fmt.Sprintf("%s (status %d, code %q): %s", ErrDeclined, e.status, e.code, e.message)
}

func (e *declinedError) Unwrap() error {
	return ErrDeclined
}
