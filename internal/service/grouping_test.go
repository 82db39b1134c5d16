package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
)

func addr(address1, city, zip string) domain.Address {
	return domain.Address{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address1:  address1,
		City:      city,
		Province:  "CA",
		Zip:       zip,
		Country:   "US",
	}
}

func TestAddressKey(t *testing.T) {
	a := addr("1 Main St", "Springfield", "90001")
	assert.Equal(t, "1 main st|springfield|ca|90001|us", AddressKey(a))

	b := a
	b.Address1 = "  1 MAIN st "
	b.City = "SPRINGFIELD"
	b.Address2 = "Apt 4"
	b.Phone = "+1 555 0100"
	assert.Equal(t, AddressKey(a), AddressKey(b))

	c := a
	c.Zip = "90002"
	assert.NotEqual(t, AddressKey(a), AddressKey(c))
}

func TestGroupLineItemsByAddress(t *testing.T) {
	home := addr("1 Main St", "Springfield", "90001")
	office := addr("500 Market St", "Shelbyville", "90210")
	homeShouting := home
	homeShouting.Address1 = "1 MAIN ST"
	homeShouting.Address2 = "Back door"

	input := []domain.LineItemAssignment{
		{LineItemID: 1, Quantity: 1, Address: home},
		{LineItemID: 2, Quantity: 2, Address: office},
		{LineItemID: 3, Quantity: 1, Address: homeShouting},
		{LineItemID: 4, Quantity: 5, Address: office},
	}

	groups := GroupLineItemsByAddress(input)
	require.Len(t, groups, 2)

	assert.Equal(t, AddressKey(home), groups[0].Key)
	assert.Equal(t, home, groups[0].Address)
	assert.Equal(t, []int64{1, 3}, lineItemIDs(groups[0].Items))

	assert.Equal(t, AddressKey(office), groups[1].Key)
	assert.Equal(t, []int64{2, 4}, lineItemIDs(groups[1].Items))

	total := 0
	for _, g := range groups {
		total += len(g.Items)
	}
	assert.Equal(t, len(input), total)
}

func TestGroupLineItemsByAddress_DistinctKeys(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.LineItemAssignment
		want  int
	}{
		{"empty", nil, 0},
		{"single", []domain.LineItemAssignment{{LineItemID: 1, Quantity: 1, Address: addr("a", "b", "1")}}, 1},
		{"all same", []domain.LineItemAssignment{
			{LineItemID: 1, Quantity: 1, Address: addr("a", "b", "1")},
			{LineItemID: 2, Quantity: 1, Address: addr("A", "B", "1")},
		}, 1},
		{"all different", []domain.LineItemAssignment{
			{LineItemID: 1, Quantity: 1, Address: addr("a", "b", "1")},
			{LineItemID: 2, Quantity: 1, Address: addr("a", "b", "2")},
			{LineItemID: 3, Quantity: 1, Address: addr("a", "c", "1")},
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, GroupLineItemsByAddress(tt.input), tt.want)
		})
	}
}

func lineItemIDs(items []domain.LineItemAssignment) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.LineItemID)
	}
	return ids
}
