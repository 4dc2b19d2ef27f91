package enums

import "fmt"

// LiveEventType is the canonical event_type for live dashboard routing.
type LiveEventType string

const (
	LiveEventSummaryUpdate      LiveEventType = "summary_update"
	LiveEventSalesUpdate        LiveEventType = "sales_update"
	LiveEventProductsUpdate     LiveEventType = "products_update"
	LiveEventTransactionCreated LiveEventType = "transaction_created"
)

var validLiveEventTypes = []LiveEventType{
	LiveEventSummaryUpdate,
	LiveEventSalesUpdate,
	LiveEventProductsUpdate,
	LiveEventTransactionCreated,
}

// IsValid reports whether the value matches the canonical live event_type enum.
func (l LiveEventType) IsValid() bool {
	for _, candidate := range validLiveEventTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLiveEventType converts the raw string to LiveEventType.
func ParseLiveEventType(value string) (LiveEventType, error) {
	for _, candidate := range validLiveEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid live event type %q", value)
}
