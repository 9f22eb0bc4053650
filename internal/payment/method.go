package payment

import (
	"errors"
	"strings"
	"time"
)

// Type enumerates the payment methods a shopper can select at checkout.
type Type string

const (
	TypeCard           Type = "card"
	TypePayPal         Type = "paypal"
	TypeCashOnDelivery Type = "cash_on_delivery"
)

var (
	// ErrUnsupportedMethod is returned for unknown payment method types.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrInvalidCardNumber is returned when a card number fails the Luhn check or length rules.
	ErrInvalidCardNumber = errors.New("invalid card number")
	// ErrCardExpired is returned when the card expiry month has passed.
	ErrCardExpired = errors.New("card expired")
	// ErrEmailRequired is returned when a PayPal selection omits the account email.
	ErrEmailRequired = errors.New("paypal email is required")
)

// Method is the payment selection submitted with an order. Card details never leave this struct;
// orders store a Snapshot instead.
type Method struct {
	Type       Type   `json:"type" validate:"required"`
	CardNumber string `json:"cardNumber,omitempty"`
	Holder     string `json:"holder,omitempty"`
	ExpMonth   int    `json:"expMonth,omitempty"`
	ExpYear    int    `json:"expYear,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Snapshot is the non-sensitive record of the payment selection kept on an order.
type Snapshot struct {
	Type   Type   `json:"type"`
	Brand  string `json:"brand,omitempty"`
	Last4  string `json:"last4,omitempty"`
	Holder string `json:"holder,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Validate checks the selection at the given instant.
func (m Method) Validate(now time.Time) error {
	switch m.Type {
	case TypeCard:
		digits := Digits(m.CardNumber)
		if len(digits) < 12 || len(digits) > 19 || !Luhn(digits) {
			return ErrInvalidCardNumber
		}
		if m.ExpMonth < 1 || m.ExpMonth > 12 || m.ExpYear <= 0 {
			return ErrCardExpired
		}
		// valid through the last day of the expiry month
		endOfMonth := time.Date(m.ExpYear, time.Month(m.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
		if !now.UTC().Before(endOfMonth) {
			return ErrCardExpired
		}
		return nil
	case TypePayPal:
		if strings.TrimSpace(m.Email) == "" {
			return ErrEmailRequired
		}
		return nil
	case TypeCashOnDelivery:
		return nil
	}
	return ErrUnsupportedMethod
}

// Snapshot strips sensitive fields from the selection.
func (m Method) Snapshot() Snapshot {
	snap := Snapshot{Type: m.Type}
	switch m.Type {
	case TypeCard:
		digits := Digits(m.CardNumber)
		snap.Brand = Brand(digits)
		if len(digits) >= 4 {
			snap.Last4 = digits[len(digits)-4:]
		}
		snap.Holder = strings.TrimSpace(m.Holder)
	case TypePayPal:
		snap.Email = strings.TrimSpace(m.Email)
	}
	return snap
}

// Digits strips spaces and dashes from a card number. Any other character yields "".
func Digits(number string) string {
	var b strings.Builder
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return ""
		}
	}
	return b.String()
}

// Luhn reports whether the digit string passes the mod-10 checksum.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Brand guesses the card network from the issuer prefix.
func Brand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	case strings.HasPrefix(digits, "6011"), strings.HasPrefix(digits, "65"):
		return "discover"
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return "mastercard"
	case len(digits) >= 4 && digits[:4] >= "2221" && digits[:4] <= "2720":
		return "mastercard"
	}
	return "unknown"
}
