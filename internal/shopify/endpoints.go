package shopify

import "fmt"

// Admin REST paths, relative to /admin/api/{version}
const (
	orderPath              = "/orders/%d.json"
	orderMetafieldsPath    = "/orders/%d/metafields.json"
	orderMetafieldPath     = "/orders/%d/metafields/%d.json"
	draftOrdersPath        = "/draft_orders.json"
	draftOrderCompletePath = "/draft_orders/%d/complete.json"
)

// OrderPath returns the REST path of a single order
func OrderPath(orderID int64) string {
	return fmt.Sprintf(orderPath, orderID)
}

func OrderMetafieldsPath(orderID int64) string {
	return fmt.Sprintf(orderMetafieldsPath, orderID)
}

func OrderMetafieldPath(orderID, metafieldID int64) string {
	return fmt.Sprintf(orderMetafieldPath, orderID, metafieldID)
}

func DraftOrderCompletePath(draftOrderID int64) string {
	return fmt.Sprintf(draftOrderCompletePath, draftOrderID)
}
