package discount

import (
	"slices"
	"time"
)

// CheckCoupon evaluates the validity rules of a coupon against the subject.
// Checks run in a fixed order and stop at the first failure so the reported reason is deterministic.
func CheckCoupon(c *Coupon, s Subject) error {
	if c == nil || !c.Active {
		return Reject(ReasonNotFound, codeOf(c))
	}
	if expired(c.ExpiresAt, s.Now) {
		return Reject(ReasonExpired, c.Code)
	}
	if c.HasBeenUsedBy(s.UserID) {
		return Reject(ReasonAlreadyUsed, c.Code)
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return Reject(ReasonUsageLimitReached, c.Code)
	}
	return checkRestrictions(c.Code, c.Restrictions, s)
}

// CheckGiftCard evaluates the validity rules of a gift card against the subject.
func CheckGiftCard(g *GiftCard, s Subject) error {
	if g == nil || !g.Active {
		code := ""
		if g != nil {
			code = g.Code
		}
		return Reject(ReasonNotFound, code)
	}
	if expired(g.ExpiresAt, s.Now) {
		return Reject(ReasonExpired, g.Code)
	}
	if g.Redeemed {
		return Reject(ReasonAlreadyRedeemed, g.Code)
	}
	if err := checkRestrictions(g.Code, g.Restrictions, s); err != nil {
		return err
	}
	if s.Currency != "" && g.Currency != s.Currency {
		return Reject(ReasonCurrencyMismatch, g.Code)
	}
	return nil
}

func checkRestrictions(code string, r Restrictions, s Subject) error {
	if len(r.UserIDs) > 0 && !slices.Contains(r.UserIDs, s.UserID) {
		return Reject(ReasonNotEligibleForUser, code)
	}
	if r.MinPurchase != nil && s.Subtotal != nil && *s.Subtotal < *r.MinPurchase {
		return Reject(ReasonBelowMinimumPurchase, code)
	}
	if r.Scoped() && len(s.Items) > 0 && EligibleSubtotal(s.Items, r) <= 0 {
		return Reject(ReasonNotApplicable, code)
	}
	return nil
}

// expired treats the expiry instant itself as still valid.
func expired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	if now.IsZero() {
		now = time.Now()
	}
	return now.After(*expiresAt)
}

func codeOf(c *Coupon) string {
	if c == nil {
		return ""
	}
	return c.Code
}
