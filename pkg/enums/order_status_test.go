package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusExpired},
		{OrderStatusPending, OrderStatusPaymentFailed},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusPaid, OrderStatusPartiallyRefunded},
		{OrderStatusPartiallyRefunded, OrderStatusRefunded},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}
}

func TestOrderStatusNoBackwardTransitions(t *testing.T) {
	for _, from := range validOrderStatuses {
		if from == OrderStatusPending {
			continue
		}
		if from.CanTransitionTo(OrderStatusPending) {
			t.Fatalf("%s must never transition back to pending", from)
		}
	}

	terminal := []OrderStatus{OrderStatusRefunded, OrderStatusExpired, OrderStatusPaymentFailed}
	for _, from := range terminal {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, to := range validOrderStatuses {
			if from.CanTransitionTo(to) {
				t.Fatalf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("paid"); err != nil {
		t.Fatalf("paid should parse: %v", err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("unknown status should not parse")
	}
}

func TestParseProcessor(t *testing.T) {
	for _, raw := range []string{"stripe", "paypal"} {
		if _, err := ParseProcessor(raw); err != nil {
			t.Fatalf("%s should parse: %v", raw, err)
		}
	}
	if _, err := ParseProcessor("square"); err == nil {
		t.Fatalf("unknown processor should not parse")
	}
}
