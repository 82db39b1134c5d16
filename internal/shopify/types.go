package shopify

import "time"

// Order is the subset of the REST order resource this service reads
type Order struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	OrderNumber     int             `json:"order_number"`
	Email           string          `json:"email,omitempty"`
	Currency        string          `json:"currency"`
	Note            string          `json:"note,omitempty"`
	NoteAttributes  []NoteAttribute `json:"note_attributes,omitempty"`
	Tags            string          `json:"tags,omitempty"`
	Customer        *Customer       `json:"customer,omitempty"`
	BillingAddress  *MailingAddress `json:"billing_address,omitempty"`
	ShippingAddress *MailingAddress `json:"shipping_address,omitempty"`
	LineItems       []LineItem      `json:"line_items"`
}

// NoteAttribute is used for order note_attributes and line item properties
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type LineItem struct {
	ID               int64           `json:"id"`
	VariantID        *int64          `json:"variant_id"`
	ProductID        *int64          `json:"product_id"`
	Title            string          `json:"title"`
	VariantTitle     string          `json:"variant_title,omitempty"`
	SKU              string          `json:"sku,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            string          `json:"price"`
	RequiresShipping bool            `json:"requires_shipping"`
	Properties       []NoteAttribute `json:"properties,omitempty"`
}

type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type MailingAddress struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type Metafield struct {
	ID            int64     `json:"id,omitempty"`
	Namespace     string    `json:"namespace,omitempty"`
	Key           string    `json:"key,omitempty"`
	Type          string    `json:"type,omitempty"`
	Value         string    `json:"value"`
	OwnerID       int64     `json:"owner_id,omitempty"`
	OwnerResource string    `json:"owner_resource,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// DraftOrderInput is the body of POST /draft_orders.json
type DraftOrderInput struct {
	LineItems       []DraftOrderLineItem `json:"line_items"`
	Customer        *CustomerRef         `json:"customer,omitempty"`
	Email           string               `json:"email,omitempty"`
	BillingAddress  *MailingAddress      `json:"billing_address,omitempty"`
	ShippingAddress *MailingAddress      `json:"shipping_address,omitempty"`
	Currency        string               `json:"currency,omitempty"`
	Note            string               `json:"note,omitempty"`
	NoteAttributes  []NoteAttribute      `json:"note_attributes,omitempty"`
	Tags            string               `json:"tags,omitempty"`
}

type DraftOrderLineItem struct {
	VariantID  *int64          `json:"variant_id,omitempty"`
	Title      string          `json:"title,omitempty"` // custom items only
	Price      string          `json:"price,omitempty"` // custom items only
	Quantity   int             `json:"quantity"`
	Properties []NoteAttribute `json:"properties,omitempty"`
}

type CustomerRef struct {
	ID int64 `json:"id"`
}

type DraftOrder struct {
	ID      int64  `json:"id"`
	Name    string `json:"name,omitempty"`
	Status  string `json:"status,omitempty"`
	OrderID *int64 `json:"order_id"`
}

// Request and response wrappers; the REST API nests every resource under its singular name.
type (
	OrderResponse      struct{ Order Order `json:"order"` }
	MetafieldsResponse struct{ Metafields []Metafield `json:"metafields"` }
	MetafieldEnvelope  struct{ Metafield Metafield `json:"metafield"` }
	DraftOrderRequest  struct{ DraftOrder DraftOrderInput `json:"draft_order"` }
	DraftOrderResponse struct{ DraftOrder DraftOrder `json:"draft_order"` }
	OrderNoteRequest   struct{ Order OrderNoteUpdate `json:"order"` }
)

type OrderNoteUpdate struct {
	ID   int64  `json:"id"`
	Note string `json:"note"`
}
