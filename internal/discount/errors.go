package discount

import (
	"errors"
	"fmt"
)

// Reason is a stable machine-readable code explaining why a code was rejected.
type Reason string

const (
	ReasonNotFound             Reason = "NOT_FOUND"
	ReasonExpired              Reason = "EXPIRED"
	ReasonAlreadyRedeemed      Reason = "ALREADY_REDEEMED"
	ReasonAlreadyUsed          Reason = "ALREADY_USED"
	ReasonUsageLimitReached    Reason = "USAGE_LIMIT_REACHED"
	ReasonNotEligibleForUser   Reason = "NOT_ELIGIBLE_FOR_USER"
	ReasonBelowMinimumPurchase Reason = "BELOW_MINIMUM_PURCHASE"
	ReasonNotApplicable        Reason = "NOT_APPLICABLE"
	ReasonCurrencyMismatch     Reason = "CURRENCY_MISMATCH"
	ReasonEmptyCart            Reason = "EMPTY_CART"
	ReasonConflict             Reason = "CONFLICT"
)

var (
	// ErrNotFound is returned when the code does not exist or is inactive.
	ErrNotFound = errors.New("discount code not found")
	// ErrExpired is returned when the code expired before the evaluation instant.
	ErrExpired = errors.New("discount code expired")
	// ErrAlreadyRedeemed indicates a single-use gift card was consumed already.
	ErrAlreadyRedeemed = errors.New("gift card already redeemed")
	// ErrAlreadyUsed indicates the user already redeemed the coupon.
	ErrAlreadyUsed = errors.New("coupon already used by this user")
	// ErrUsageLimitReached indicates the coupon exhausted its global quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrNotEligibleForUser is returned when a user restriction excludes the caller.
	ErrNotEligibleForUser = errors.New("discount code not available for this user")
	// ErrBelowMinimumPurchase indicates the cart subtotal is under the threshold.
	ErrBelowMinimumPurchase = errors.New("cart subtotal below minimum purchase")
	// ErrNotApplicable is returned when a scoped code matches no cart item.
	ErrNotApplicable = errors.New("discount code does not apply to any cart item")
	// ErrCurrencyMismatch is returned when a gift card currency differs from the order currency.
	ErrCurrencyMismatch = errors.New("gift card currency does not match order currency")
	// ErrEmptyCart is returned when an order is assembled without line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrConflict indicates a redemption lost a race against a concurrent request.
	ErrConflict = errors.New("discount redemption conflict")
)

var reasonErrors = map[Reason]error{
	ReasonNotFound:             ErrNotFound,
	ReasonExpired:              ErrExpired,
	ReasonAlreadyRedeemed:      ErrAlreadyRedeemed,
	ReasonAlreadyUsed:          ErrAlreadyUsed,
	ReasonUsageLimitReached:    ErrUsageLimitReached,
	ReasonNotEligibleForUser:   ErrNotEligibleForUser,
	ReasonBelowMinimumPurchase: ErrBelowMinimumPurchase,
	ReasonNotApplicable:        ErrNotApplicable,
	ReasonCurrencyMismatch:     ErrCurrencyMismatch,
	ReasonEmptyCart:            ErrEmptyCart,
	ReasonConflict:             ErrConflict,
}

// RuleError reports an expected, user-facing rejection of a code.
type RuleError struct {
	Reason Reason
	Code   string
	// Cause refines a CONFLICT with the state the record was found in after losing the race.
	Cause Reason
}

// Reject builds a RuleError for the given reason and code.
func Reject(reason Reason, code string) *RuleError {
	return &RuleError{Reason: reason, Code: code}
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message()
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Cause != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Cause)
	}
	return msg
}

// Message returns the human readable description of the reason.
func (e *RuleError) Message() string {
	if e == nil {
		return ""
	}
	if err, ok := reasonErrors[e.Reason]; ok {
		return err.Error()
	}
	return string(e.Reason)
}

// Is lets errors.Is match the reason sentinels, including the refined cause of a conflict.
func (e *RuleError) Is(target error) bool {
	if e == nil {
		return false
	}
	if err, ok := reasonErrors[e.Reason]; ok && err == target {
		return true
	}
	if err, ok := reasonErrors[e.Cause]; ok && err == target {
		return true
	}
	return false
}

// ReasonOf extracts the reason from err, returning "" when err is not a rule rejection.
func ReasonOf(err error) Reason {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Reason
	}
	return ""
}
