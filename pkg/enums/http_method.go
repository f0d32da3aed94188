package enums

import "fmt"

// HTTPMethod is the verb recorded on a delivery attempt.
type HTTPMethod string

const (
	HTTPMethodPost   HTTPMethod = "POST"
	HTTPMethodGet    HTTPMethod = "GET"
	HTTPMethodPut    HTTPMethod = "PUT"
	HTTPMethodDelete HTTPMethod = "DELETE"
)

var validHTTPMethods = []HTTPMethod{
	HTTPMethodPost,
	HTTPMethodGet,
	HTTPMethodPut,
	HTTPMethodDelete,
}

// String implements fmt.Stringer.
func (m HTTPMethod) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known HTTPMethod.
func (m HTTPMethod) IsValid() bool {
	for _, candidate := range validHTTPMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseHTTPMethod converts raw input into an HTTPMethod.
func ParseHTTPMethod(value string) (HTTPMethod, error) {
	for _, candidate := range validHTTPMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid http method %q", value)
}
