package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

func validAddress() domain.Address {
	return domain.Address{
		FirstName: "Grace",
		LastName:  "Hopper",
		Address1:  "1 Navy Way",
		City:      "Arlington",
		Province:  "VA",
		Zip:       "22202",
		Country:   "US",
	}
}

func TestValidateAddress_Normalizes(t *testing.T) {
	in := validAddress()
	in.FirstName = "  Grace "
	in.Country = " us "

	out, err := ValidateAddress(in)
	require.NoError(t, err)
	assert.Equal(t, "Grace", out.FirstName)
	assert.Equal(t, "US", out.Country)
}

func TestValidateAddress_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *domain.Address)
		field   string
		message string
	}{
		{"three letter country", func(a *domain.Address) { a.Country = "usa" }, "country", "Must be a 2-letter ISO country code (e.g. US)"},
		{"numeric country", func(a *domain.Address) { a.Country = "1A" }, "country", "Must be a 2-letter ISO country code (e.g. US)"},
		{"missing city", func(a *domain.Address) { a.City = "   " }, "city", "This field is required"},
		{"missing zip", func(a *domain.Address) { a.Zip = "" }, "zip", "This field is required"},
		{"missing province", func(a *domain.Address) { a.Province = "" }, "province", "This field is required"},
		{"long phone", func(a *domain.Address) { a.Phone = "0123456789012345678901234567890123" }, "phone", "Must be at most 30 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAddress()
			tt.mutate(&a)

			_, err := ValidateAddress(a)
			var verr *errors.ErrValidation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Fields[tt.field])
			assert.Contains(t, verr.Message, tt.field)
		})
	}
}

func TestValidateAddress_CountryMessageCitesTwoLetters(t *testing.T) {
	a := validAddress()
	a.Country = "usa"

	_, err := ValidateAddress(a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2-letter")
}

func TestValidateAssignments(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ValidateAssignments(nil)
		var verr *errors.ErrValidation
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "line_items")
	})

	t.Run("indexes nested errors", func(t *testing.T) {
		bad := validAddress()
		bad.Country = "usa"

		_, err := ValidateAssignments([]domain.LineItemAssignment{
			{LineItemID: 1, Quantity: 1, Address: validAddress()},
			{LineItemID: 0, Quantity: 0, Address: bad},
		})
		var verr *errors.ErrValidation
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "line_items[1].line_item_id")
		assert.Contains(t, verr.Fields, "line_items[1].quantity")
		assert.Contains(t, verr.Fields, "line_items[1].address.country")
		assert.NotContains(t, verr.Fields, "line_items[0].address.country")
	})

	t.Run("normalizes", func(t *testing.T) {
		a := validAddress()
		a.Country = "ca"
		out, err := ValidateAssignments([]domain.LineItemAssignment{{LineItemID: 9, Title: " Mug ", Quantity: 2, Address: a}})
		require.NoError(t, err)
		assert.Equal(t, "CA", out[0].Address.Country)
		assert.Equal(t, "Mug", out[0].Title)
	})
}
