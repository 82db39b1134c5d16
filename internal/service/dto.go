package service

import (
	"bytes"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

// SaveRequest is the payload of POST /api/multi-address/save
type SaveRequest struct {
	OrderID    OrderRef                    `json:"order_id" yaml:"order_id" binding:"required"`
	LineItems  []domain.LineItemAssignment `json:"line_items" yaml:"line_items"`
	SaveMethod domain.SaveMethod           `json:"save_method,omitempty" yaml:"save_method,omitempty"`
}

// Method returns the requested save method, metafields when unset
func (r SaveRequest) Method() domain.SaveMethod {
	if r.SaveMethod == "" {
		return domain.SaveMethodMetafields
	}
	return r.SaveMethod
}

// UpdateAddressesRequest is the payload of PUT /api/multi-address/addresses/:orderId
type UpdateAddressesRequest struct {
	LineItems []domain.LineItemAssignment `json:"line_items" yaml:"line_items"`
}

// ValidateAddressRequest accepts either a bare address or {"address": {...}}
type ValidateAddressRequest struct {
	Nested *domain.Address `json:"address,omitempty" yaml:"address,omitempty"`
	domain.Address `yaml:",inline"`
}

func (r ValidateAddressRequest) Target() domain.Address {
	if r.Nested != nil {
		return *r.Nested
	}
	return r.Address
}

// OrderRef is an order id given as a JSON number or a numeric string
type OrderRef int64

func (r *OrderRef) UnmarshalJSON(b []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if raw == "null" || raw == "" {
		*r = 0
		return nil
	}
	id, err := ParseOrderRef(raw)
	if err != nil {
		return err
	}
	*r = OrderRef(id)
	return nil
}

func (r *OrderRef) UnmarshalYAML(value *yaml.Node) error {
	id, err := ParseOrderRef(value.Value)
	if err != nil {
		return err
	}
	*r = OrderRef(id)
	return nil
}

func (r OrderRef) Int64() int64 {
	return int64(r)
}

// ParseOrderRef parses a positive numeric order id
func ParseOrderRef(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &errors.ErrValidation{
			Message: "order id must be a positive integer",
			Fields:  map[string]string{"order_id": "Must be a positive integer"},
		}
	}
	return id, nil
}
