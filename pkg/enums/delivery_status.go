package enums

import (
	"fmt"
	"strings"
)

// DeliveryStatus is the terminal outcome of a single dispatch attempt.
type DeliveryStatus string

const (
	DeliveryStatusSuccess DeliveryStatus = "SUCCESS"
	DeliveryStatusError   DeliveryStatus = "ERROR"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusSuccess,
	DeliveryStatusError,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Public returns the lower-case form exposed over the API.
func (s DeliveryStatus) Public() string {
	return strings.ToLower(string(s))
}

// ParseDeliveryStatus accepts either the stored or the public (lower-case) form.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
