package service

import (
	"strings"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
)

const addressKeySeparator = "|"

// AddressKey identifies a physical destination. address2 and phone do not
// take part, so two items differing only there ship together.
func AddressKey(addr domain.Address) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return strings.Join([]string{
		norm(addr.Address1),
		norm(addr.City),
		norm(addr.Province),
		norm(addr.Zip),
		norm(addr.Country),
	}, addressKeySeparator)
}

// GroupLineItemsByAddress partitions assignments by AddressKey. Groups come
// back in first-seen order and items keep their relative order. The group
// address is the one on the first item seen for that key.
func GroupLineItemsByAddress(assignments []domain.LineItemAssignment) []domain.AddressGroup {
	index := make(map[string]int)
	groups := make([]domain.AddressGroup, 0)

	for _, a := range assignments {
		key := AddressKey(a.Address)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.AddressGroup{Key: key, Address: a.Address})
		}
		groups[i].Items = append(groups[i].Items, a)
	}

	return groups
}
