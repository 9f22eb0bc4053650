package payment

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestLuhn(t *testing.T) {
	cases := map[string]bool{
		"4242424242424242": true,
		"4242424242424241": false,
		"79927398713":      true,
		"":                 false,
	}
	for number, want := range cases {
		if got := Luhn(number); got != want {
			t.Fatalf("Luhn(%q) = %v, want %v", number, got, want)
		}
	}
}

func TestValidateCard(t *testing.T) {
	m := Method{Type: TypeCard, CardNumber: "4242 4242 4242 4242", Holder: "Ada", ExpMonth: 6, ExpYear: 2025}
	if err := m.Validate(now); err != nil {
		t.Fatalf("expected card valid through end of month, got %v", err)
	}

	m.ExpMonth = 5
	if err := m.Validate(now); !errors.Is(err, ErrCardExpired) {
		t.Fatalf("expected ErrCardExpired, got %v", err)
	}

	m.ExpMonth = 12
	m.CardNumber = "4242424242424241"
	if err := m.Validate(now); !errors.Is(err, ErrInvalidCardNumber) {
		t.Fatalf("expected ErrInvalidCardNumber, got %v", err)
	}

	m.CardNumber = "4242-abcd"
	if err := m.Validate(now); !errors.Is(err, ErrInvalidCardNumber) {
		t.Fatalf("expected ErrInvalidCardNumber for non-digits, got %v", err)
	}
}

func TestValidateOtherMethods(t *testing.T) {
	if err := (Method{Type: TypePayPal}).Validate(now); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
	if err := (Method{Type: TypePayPal, Email: "buyer@example.com"}).Validate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Method{Type: TypeCashOnDelivery}).Validate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Method{Type: "crypto"}).Validate(now); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestSnapshotDropsCardNumber(t *testing.T) {
	snap := Method{Type: TypeCard, CardNumber: "5555 5555 5555 4444", Holder: " Grace ", ExpMonth: 1, ExpYear: 2030}.Snapshot()
	if snap.Brand != "mastercard" || snap.Last4 != "4444" || snap.Holder != "Grace" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestBrand(t *testing.T) {
	cases := map[string]string{
		"4111111111111111": "visa",
		"378282246310005":  "amex",
		"6011111111111117": "discover",
		"2223003122003222": "mastercard",
		"3530111333300000": "unknown",
	}
	for number, want := range cases {
		if got := Brand(number); got != want {
			t.Fatalf("Brand(%q) = %q, want %q", number, got, want)
		}
	}
}
