package bank

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
)

const sandboxPrefix = "sbx_"

// Sandbox approves every transfer locally. Used in dev and when no provider is configured.
type Sandbox struct {
	logg     *logger.Logger
	exponent int32
}

func NewSandbox(exponent int32, logg *logger.Logger) *Sandbox {
	return &Sandbox{logg: logg, exponent: exponent}
}

func (s *Sandbox) WithdrawFromMember(ctx context.Context, t Transfer) (string, error) {
	return s.transfer(ctx, "withdraw_from_member", t)
}

func (s *Sandbox) DepositToMember(ctx context.Context, t Transfer) (string, error) {
	return s.transfer(ctx, "deposit_to_member", t)
}

func (s *Sandbox) transfer(ctx context.Context, op string, t Transfer) (string, error) {
	if t.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrDeclined)
	}
	ref := sandboxPrefix + uuid.NewString()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"bank_op":     op,
			"member_id":   t.MemberID.String(),
			"amount":      MajorUnits(t.Amount, s.exponent).String(),
			"description": t.Description,
			"reference":   t.Reference,
			"ext_tx_id":   ref,
		})
		s.logg.Info(logCtx, "sandbox bank transfer approved")
	}
	return ref, nil
}
