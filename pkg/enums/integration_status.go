package enums

import (
	"fmt"
	"strings"
)

// IntegrationStatus captures whether a routing rule is enabled by its owner.
type IntegrationStatus string

const (
	IntegrationStatusActive   IntegrationStatus = "ACTIVE"
	IntegrationStatusInactive IntegrationStatus = "INACTIVE"
)

var validIntegrationStatuses = []IntegrationStatus{
	IntegrationStatusActive,
	IntegrationStatusInactive,
}

// String implements fmt.Stringer.
func (s IntegrationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known IntegrationStatus.
func (s IntegrationStatus) IsValid() bool {
	for _, candidate := range validIntegrationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the display label shown next to the status.
func (s IntegrationStatus) Label() string {
	switch s {
	case IntegrationStatusActive:
		return "Active"
	case IntegrationStatusInactive:
		return "Inactive"
	}
	return string(s)
}

// ParseIntegrationStatus converts raw input into an IntegrationStatus. Matching is case-insensitive.
func ParseIntegrationStatus(value string) (IntegrationStatus, error) {
	for _, candidate := range validIntegrationStatuses {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid integration status %q", value)
}
