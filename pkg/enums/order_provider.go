package enums

import "fmt"

// OrderProvider identifies who fulfills an order: the Secsers reseller API
// or a human admin through the manual approval flow.
type OrderProvider string

const (
	OrderProviderSecsers OrderProvider = "secsers"
	OrderProviderManual  OrderProvider = "manual"
)

var validOrderProviders = []OrderProvider{
	OrderProviderSecsers,
	OrderProviderManual,
}

// String implements fmt.Stringer.
func (o OrderProvider) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderProvider.
func (o OrderProvider) IsValid() bool {
	for _, candidate := range validOrderProviders {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderProvider converts raw input into an OrderProvider.
func ParseOrderProvider(value string) (OrderProvider, error) {
	for _, candidate := range validOrderProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order provider %q", value)
}
