package domain

// SaveMethod selects how POST /save persists assignments
type SaveMethod string

const (
	// SaveMethodMetafields stores assignments on the original order
	SaveMethodMetafields SaveMethod = "metafields"
	// SaveMethodSplitOrders creates one new order per distinct address
	SaveMethodSplitOrders SaveMethod = "split_orders"
)

// IsValid checks if the save method is known
func (m SaveMethod) IsValid() bool {
	switch m {
	case SaveMethodMetafields, SaveMethodSplitOrders:
		return true
	}
	return false
}

func (m SaveMethod) String() string {
	return string(m)
}

// Note attribute that flags an order for multi-address shipping
const (
	MultiAddressFlagName  = "multi_address_shipping"
	MultiAddressFlagValue = "yes"
)
