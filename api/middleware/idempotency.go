package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/lockerlend-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL    = 24 * time.Hour
	criticalIdempotencyTTL   = 7 * 24 * time.Hour
	pendingIdempotencyTTL    = 2 * time.Minute
	idempotencyRoutePrefix   = "/api/v1/"
	maxIdempotencyKeyLength  = 255
)

// Rental transitions that move money or release a locker keep their replay window longest.
var rentalActionTTL = map[string]time.Duration{
	"approve":  criticalIdempotencyTTL,
	"pick-up":  criticalIdempotencyTTL,
	"retrieve": criticalIdempotencyTTL,
	"reject":   defaultIdempotencyTTL,
	"cancel":   defaultIdempotencyTTL,
	"drop-off": defaultIdempotencyTTL,
	"return":   defaultIdempotencyTTL,
}

var walletActionTTL = map[string]time.Duration{
	"":         defaultIdempotencyTTL,
	"top-up":   criticalIdempotencyTTL,
	"withdraw": criticalIdempotencyTTL,
}

// storedResponse is either a reservation held while the first request runs
// (Pending) or the response recorded once it finished.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the first response recorded for a member's Idempotency-Key on
// money-moving POSTs. The key is reserved before the handler runs, so a concurrent
// duplicate gets 409 instead of executing twice. Server errors drop the
// reservation so the client may retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			switch {
			case clientKey == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			case len(clientKey) > maxIdempotencyKeyLength:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := requestFingerprint(body)
			key := store.IdempotencyKey(MemberIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			reservation, _ := json.Marshal(storedResponse{Pending: true, RequestHash: fingerprint})
			reserved, err := store.SetNX(ctx, key, string(reservation), pendingIdempotencyTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayPrior(w, r, store, key, fingerprint, logg)
				return
			}

			stored := false
			defer func() {
				if stored {
					return
				}
				if _, err := store.DelIfValue(context.WithoutCancel(ctx), key, string(reservation)); err != nil && logg != nil {
					logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "release idempotency reservation", err)
				}
			}()

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: fingerprint,
			})
			if err == nil {
				err = store.Set(ctx, key, string(payload), ttl)
			}
			if err != nil {
				if logg != nil {
					logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "persist idempotency record", err)
				}
				return
			}
			stored = true
		})
	}
}

// replayPrior answers a request whose key is already reserved or recorded.
func replayPrior(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, fingerprint string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case prior.RequestHash != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress"))
	default:
		prior.replay(w)
	}
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

func requestFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// idempotencyTTL matches the raw request path rather than the chi route pattern,
// which is only complete once the innermost router has dispatched.
func idempotencyTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost || !strings.HasPrefix(path, idempotencyRoutePrefix) {
		return 0, false
	}
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, idempotencyRoutePrefix), "/"), "/")

	switch segments[0] {
	case "rentals":
		switch len(segments) {
		case 1:
			return defaultIdempotencyTTL, true
		case 3:
			ttl, ok := rentalActionTTL[segments[2]]
			return ttl, ok
		}
	case "wallet":
		action := ""
		if len(segments) == 2 {
			action = segments[1]
		} else if len(segments) > 2 {
			return 0, false
		}
		ttl, ok := walletActionTTL[action]
		return ttl, ok
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
