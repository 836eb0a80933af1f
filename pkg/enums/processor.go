package enums

import "fmt"

// Processor identifies the payment processor integration that owns an order.
type Processor string

const (
	// ProcessorStripe is the synchronous-redirect integration: approval and
	// capture happen as one event, observed only via webhook.
	ProcessorStripe Processor = "stripe"
	// ProcessorPayPal is the two-phase integration: buyer approval is followed
	// by an explicit capture call.
	ProcessorPayPal Processor = "paypal"
)

var validProcessors = []Processor{
	ProcessorStripe,
	ProcessorPayPal,
}

// String implements fmt.Stringer.
func (p Processor) String() string {
	return string(p)
}

// IsValid reports whether the processor is recognized.
func (p Processor) IsValid() bool {
	for _, candidate := range validProcessors {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProcessor converts a raw string into a Processor.
func ParseProcessor(value string) (Processor, error) {
	for _, candidate := range validProcessors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown payment processor %q", value)
}
