package service

import (
	"fmt"
	"strconv"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

const splitOrderTag = "multi-address-split"

// resolveLineItems looks up every assigned line item on the original order
func resolveLineItems(order *shopify.Order, assignments []domain.LineItemAssignment) (map[int64]shopify.LineItem, error) {
	byID := make(map[int64]shopify.LineItem, len(order.LineItems))
	for _, li := range order.LineItems {
		byID[li.ID] = li
	}

	fields := make(map[string]string)
	for i, a := range assignments {
		if _, ok := byID[a.LineItemID]; !ok {
			fields[fmt.Sprintf("line_items[%d].line_item_id", i)] = fmt.Sprintf("Line item %d not found on order %d", a.LineItemID, order.ID)
		}
	}
	if len(fields) > 0 {
		return nil, &errors.ErrValidation{
			Message: fmt.Sprintf("Line items not found on order %d", order.ID),
			Fields:  fields,
		}
	}
	return byID, nil
}

// overAllocated returns line item ids whose assigned quantity exceeds the ordered quantity
func overAllocated(lineItems map[int64]shopify.LineItem, assignments []domain.LineItemAssignment) []int64 {
	assigned := make(map[int64]int)
	var order []int64
	for _, a := range assignments {
		if _, seen := assigned[a.LineItemID]; !seen {
			order = append(order, a.LineItemID)
		}
		assigned[a.LineItemID] += a.Quantity
	}

	var over []int64
	for _, id := range order {
		if assigned[id] > lineItems[id].Quantity {
			over = append(over, id)
		}
	}
	return over
}

// buildDraftOrder shapes the draft order for one address group. The draft
// keeps the customer, billing address and currency of the original order.
func buildDraftOrder(order *shopify.Order, group domain.AddressGroup, part, totalParts int, lineItems map[int64]shopify.LineItem) (shopify.DraftOrderInput, []domain.SplitLineItem) {
	draftItems := make([]shopify.DraftOrderLineItem, 0, len(group.Items))
	splitItems := make([]domain.SplitLineItem, 0, len(group.Items))

	for _, a := range group.Items {
		original := lineItems[a.LineItemID]
		item := shopify.DraftOrderLineItem{
			VariantID:  original.VariantID,
			Quantity:   a.Quantity,
			Properties: original.Properties,
		}
		if original.VariantID == nil {
			item.Title = original.Title
			item.Price = original.Price
		}
		draftItems = append(draftItems, item)

		title := a.Title
		if title == "" {
			title = original.Title
		}
		splitItems = append(splitItems, domain.SplitLineItem{
			LineItemID: a.LineItemID,
			VariantID:  original.VariantID,
			Title:      title,
			Quantity:   a.Quantity,
		})
	}

	input := shopify.DraftOrderInput{
		LineItems:       draftItems,
		Email:           order.Email,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: toMailingAddress(group.Address),
		Currency:        order.Currency,
		Note:            fmt.Sprintf("Split order part %d of %d from original order %s", part, totalParts, orderLabel(order)),
		NoteAttributes: []shopify.NoteAttribute{
			{Name: "original_order_id", Value: strconv.FormatInt(order.ID, 10)},
			{Name: "original_order_name", Value: orderLabel(order)},
			{Name: "split_part", Value: strconv.Itoa(part)},
			{Name: "split_total", Value: strconv.Itoa(totalParts)},
			{Name: "split_order", Value: "true"},
		},
		Tags: fmt.Sprintf("%s, split-from-%d", splitOrderTag, order.ID),
	}
	if order.Customer != nil && order.Customer.ID != 0 {
		input.Customer = &shopify.CustomerRef{ID: order.Customer.ID}
	}

	return input, splitItems
}

func toMailingAddress(a domain.Address) *shopify.MailingAddress {
	return &shopify.MailingAddress{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		Province:    a.Province,
		Zip:         a.Zip,
		CountryCode: a.Country,
		Phone:       a.Phone,
	}
}

func fromMailingAddress(m *shopify.MailingAddress) *domain.Address {
	if m == nil {
		return nil
	}
	country := m.CountryCode
	if country == "" {
		country = m.Country
	}
	return &domain.Address{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Address1:  m.Address1,
		Address2:  m.Address2,
		City:      m.City,
		Province:  m.Province,
		Zip:       m.Zip,
		Country:   country,
		Phone:     m.Phone,
	}
}

func orderLabel(order *shopify.Order) string {
	if order.Name != "" {
		return order.Name
	}
	return "#" + strconv.FormatInt(order.ID, 10)
}
