package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metafield coordinates for the persisted shipping envelope
const (
	MetafieldNamespace = "multi_address"
	MetafieldKey       = "shipping_addresses"
	MetafieldType      = "json"
)

// Address is a shipping destination for one or more line items
type Address struct {
	FirstName string `json:"first_name" yaml:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" yaml:"last_name" validate:"required,max=100"`
	Address1  string `json:"address1" yaml:"address1" validate:"required,max=255"`
	Address2  string `json:"address2,omitempty" yaml:"address2,omitempty" validate:"omitempty,max=255"`
	City      string `json:"city" yaml:"city" validate:"required,max=100"`
	Province  string `json:"province" yaml:"province" validate:"required,max=100"`
	Zip       string `json:"zip" yaml:"zip" validate:"required,max=20"`
	Country   string `json:"country" yaml:"country" validate:"required,len=2,alpha"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty" validate:"omitempty,max=30"`
}

// LineItemAssignment sends Quantity units of a line item to Address
type LineItemAssignment struct {
	LineItemID int64   `json:"line_item_id" yaml:"line_item_id" validate:"required,gt=0"`
	Title      string  `json:"title,omitempty" yaml:"title,omitempty"`
	Quantity   int     `json:"quantity" yaml:"quantity" validate:"required,gt=0"`
	Address    Address `json:"address" yaml:"address"`
}

// AddressGroup holds the assignments that share one physical destination.
// Only lives for the duration of a split.
type AddressGroup struct {
	Key     string
	Address Address
	Items   []LineItemAssignment
}

// ShippingEnvelope is the JSON value stored in the multi_address.shipping_addresses metafield
type ShippingEnvelope struct {
	ConfiguredAt time.Time          `json:"configured_at"`
	UpdatedAt    *time.Time         `json:"updated_at,omitempty"`
	LineItems    []EnvelopeLineItem `json:"line_items"`
}

type EnvelopeLineItem struct {
	LineItemID      int64   `json:"line_item_id"`
	Title           string  `json:"title,omitempty"`
	Quantity        int     `json:"quantity"`
	ShippingAddress Address `json:"shipping_address"`
}

// StoredEnvelope is an envelope as read back from Shopify, with the
// metafield identity needed to update or delete it
type StoredEnvelope struct {
	MetafieldID int64
	// Version is the metafield updated_at reported by Shopify; used for the conditional update
	Version  time.Time
	Envelope ShippingEnvelope
}

// NewEnvelope builds an envelope from assignments
func NewEnvelope(assignments []LineItemAssignment, configuredAt time.Time) ShippingEnvelope {
	items := make([]EnvelopeLineItem, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, EnvelopeLineItem{
			LineItemID:      a.LineItemID,
			Title:           a.Title,
			Quantity:        a.Quantity,
			ShippingAddress: a.Address,
		})
	}
	return ShippingEnvelope{
		ConfiguredAt: configuredAt,
		LineItems:    items,
	}
}

// SaveResult is returned by the metafield save path
type SaveResult struct {
	MetafieldID    int64     `json:"metafield_id"`
	AddressesSaved int       `json:"addresses_saved"`
	SavedAt        time.Time `json:"saved_at"`
}

// UpdateResult is returned by the update path. Created is true when no
// envelope existed and a fresh one was saved instead.
type UpdateResult struct {
	MetafieldID    int64      `json:"metafield_id"`
	AddressesSaved int        `json:"addresses_saved"`
	ConfiguredAt   time.Time  `json:"configured_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	Created        bool       `json:"created"`
}

type DeleteResult struct {
	Deleted     bool       `json:"deleted"`
	MetafieldID *int64     `json:"metafield_id,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// SplitResult describes the orders created by a split
type SplitResult struct {
	SplitSuccessful  bool           `json:"split_successful"`
	OriginalOrderID  int64          `json:"original_order_id"`
	CreatedOrders    []CreatedOrder `json:"created_orders"`
	TotalSplitOrders int            `json:"total_split_orders"`
	SplitAt          time.Time      `json:"split_at"`
}

type CreatedOrder struct {
	OrderID         int64           `json:"order_id"`
	DraftOrderID    int64           `json:"draft_order_id"`
	ShippingAddress Address         `json:"shipping_address"`
	LineItems       []SplitLineItem `json:"line_items"`
}

type SplitLineItem struct {
	LineItemID int64  `json:"line_item_id"`
	VariantID  *int64 `json:"variant_id,omitempty"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
}

// AddressesView is the read model for GET /addresses/:orderId
type AddressesView struct {
	Configured   bool               `json:"configured"`
	MetafieldID  *int64             `json:"metafield_id,omitempty"`
	ConfiguredAt *time.Time         `json:"configured_at,omitempty"`
	UpdatedAt    *time.Time         `json:"updated_at,omitempty"`
	Addresses    []EnvelopeLineItem `json:"addresses"`
}

// OrderSummary is the shippable view of an order flagged for multi-address shipping
type OrderSummary struct {
	OrderID         int64              `json:"order_id"`
	Name            string             `json:"name"`
	OrderNumber     int                `json:"order_number"`
	Email           string             `json:"email,omitempty"`
	Currency        string             `json:"currency"`
	Customer        *CustomerSummary   `json:"customer,omitempty"`
	ShippingAddress *Address           `json:"shipping_address,omitempty"`
	LineItems       []OrderLineItem    `json:"line_items"`
	TotalQuantity   int                `json:"total_quantity"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Addresses       []EnvelopeLineItem `json:"existing_addresses,omitempty"`
}

type CustomerSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type OrderLineItem struct {
	ID           int64           `json:"id"`
	VariantID    *int64          `json:"variant_id,omitempty"`
	ProductID    *int64          `json:"product_id,omitempty"`
	Title        string          `json:"title"`
	VariantTitle string          `json:"variant_title,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}
