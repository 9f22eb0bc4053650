package discount

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
)

// Querier captures the read methods required to resolve codes.
// Missing records are reported with common.ErrNotFound.
type Querier interface {
	FindCouponByCode(ctx context.Context, code string) (Coupon, error)
	FindGiftCardByCode(ctx context.Context, code string) (GiftCard, error)
}

// Resolved is a code looked up in the store, either a coupon or a gift card.
type Resolved struct {
	Source   Source
	Coupon   *Coupon
	GiftCard *GiftCard
}

// Code returns the stored code of the resolved record.
func (r Resolved) Code() string {
	switch {
	case r.Coupon != nil:
		return r.Coupon.Code
	case r.GiftCard != nil:
		return r.GiftCard.Code
	}
	return ""
}

// Kind reports the discount type; gift cards always behave as fixed amounts.
func (r Resolved) Kind() Kind {
	if r.Coupon != nil {
		return r.Coupon.Kind
	}
	return KindFixed
}

// Check runs the validity rules for the resolved record.
func (r Resolved) Check(s Subject) error {
	if r.Coupon != nil {
		return CheckCoupon(r.Coupon, s)
	}
	return CheckGiftCard(r.GiftCard, s)
}

// Evaluation describes the outcome of evaluating a code without mutating state.
type Evaluation struct {
	Valid  bool
	Code   string
	Source Source
	Kind   Kind
	// Value is the stored amount: basis points for percentage coupons, minor units otherwise.
	Value int64
	// Amount is the computed discount in minor units; zero when no subtotal was supplied.
	Amount    int64
	Remainder int64
	Reason    Reason
}

// Service encapsulates code resolution and rule evaluation. It never writes to the store.
type Service struct {
	Q      Querier
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Resolve looks the code up as a coupon first and then as a gift card.
func (s *Service) Resolve(ctx context.Context, code string) (Resolved, error) {
	if s == nil || s.Q == nil {
		return Resolved{}, errors.New("discount service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Resolved{}, Reject(ReasonNotFound, normalized)
	}
	coupon, err := s.Q.FindCouponByCode(ctx, normalized)
	if err == nil {
		return Resolved{Source: SourceCoupon, Coupon: &coupon}, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return Resolved{}, err
	}
	card, err := s.Q.FindGiftCardByCode(ctx, normalized)
	if err == nil {
		return Resolved{Source: SourceGiftCard, GiftCard: &card}, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return Resolved{}, Reject(ReasonNotFound, normalized)
	}
	return Resolved{}, err
}

// Validate evaluates a code for the subject and reports rule failures in the result
// rather than as an error. Only infrastructure failures are returned as errors.
func (s *Service) Validate(ctx context.Context, code string, subject Subject) (Evaluation, error) {
	eval, err := s.evaluate(ctx, code, subject)
	if err != nil {
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) {
			eval.Valid = false
			eval.Reason = ruleErr.Reason
			eval.Amount = 0
			eval.Remainder = 0
			return eval, nil
		}
		return Evaluation{}, err
	}
	return eval, nil
}

// Apply validates the code and computes its discount against the subject's subtotal.
// Rule failures are returned as *RuleError. Nothing is committed.
func (s *Service) Apply(ctx context.Context, code string, subject Subject) (Evaluation, error) {
	return s.evaluate(ctx, code, subject)
}

func (s *Service) evaluate(ctx context.Context, code string, subject Subject) (Evaluation, error) {
	if subject.Now.IsZero() {
		subject.Now = s.now()
	}
	eval := Evaluation{Code: NormalizeCode(code)}
	resolved, err := s.Resolve(ctx, code)
	if err != nil {
		if ReasonOf(err) != "" {
			s.record("unknown", err)
		}
		return eval, err
	}
	eval.Code = resolved.Code()
	eval.Source = resolved.Source
	eval.Kind = resolved.Kind()
	if err := resolved.Check(subject); err != nil {
		s.record(string(resolved.Source), err)
		eval.Value = storedValue(resolved)
		return eval, err
	}
	eval.Valid = true
	eval.Value = storedValue(resolved)
	if subject.Subtotal != nil {
		switch {
		case resolved.Coupon != nil:
			eval.Amount = CouponAmount(resolved.Coupon, CouponBase(resolved.Coupon, *subject.Subtotal, subject.Items))
		case resolved.GiftCard != nil:
			eval.Amount = GiftCardAmount(resolved.GiftCard, *subject.Subtotal)
			eval.Remainder = resolved.GiftCard.Amount - eval.Amount
		}
	}
	s.record(string(resolved.Source), nil)
	return eval, nil
}

func storedValue(r Resolved) int64 {
	switch {
	case r.Coupon != nil:
		return r.Coupon.Amount
	case r.GiftCard != nil:
		return r.GiftCard.Amount
	}
	return 0
}

func (s *Service) record(source string, err error) {
	result := "valid"
	if reason := ReasonOf(err); reason != "" {
		result = string(reason)
	}
	obs.CountDiscountEvaluation(source, result)
	if err != nil && s.Logger != nil {
		s.Logger.Debug().Str("source", source).Str("reason", result).Msg("discount rejected")
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
