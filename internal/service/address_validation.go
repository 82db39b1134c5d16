package service

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeAddress trims every field and upper-cases the country code
func NormalizeAddress(a domain.Address) domain.Address {
	return domain.Address{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Address1:  strings.TrimSpace(a.Address1),
		Address2:  strings.TrimSpace(a.Address2),
		City:      strings.TrimSpace(a.City),
		Province:  strings.TrimSpace(a.Province),
		Zip:       strings.TrimSpace(a.Zip),
		Country:   strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:     strings.TrimSpace(a.Phone),
	}
}

// ValidateAddress normalizes and checks a single address
func ValidateAddress(a domain.Address) (domain.Address, error) {
	normalized := NormalizeAddress(a)
	if err := validate.Struct(normalized); err != nil {
		return normalized, toValidationError("Invalid address", "", err)
	}
	return normalized, nil
}

// ValidateAssignments normalizes every address and checks ids, quantities and
// addresses. Field keys look like line_items[1].address.country.
func ValidateAssignments(assignments []domain.LineItemAssignment) ([]domain.LineItemAssignment, error) {
	if len(assignments) == 0 {
		return nil, &errors.ErrValidation{
			Message: "At least one line item assignment is required",
			Fields:  map[string]string{"line_items": "This field is required"},
		}
	}

	out := make([]domain.LineItemAssignment, len(assignments))
	fields := make(map[string]string)
	for i, a := range assignments {
		a.Title = strings.TrimSpace(a.Title)
		a.Address = NormalizeAddress(a.Address)
		out[i] = a

		if err := validate.Struct(a); err != nil {
			verr := toValidationError("", fmt.Sprintf("line_items[%d].", i), err)
			for k, v := range verr.Fields {
				fields[k] = v
			}
		}
	}

	if len(fields) > 0 {
		return nil, &errors.ErrValidation{
			Message: "Invalid line item assignments: " + firstFieldMessage(fields),
			Fields:  fields,
		}
	}
	return out, nil
}

func toValidationError(message, prefix string, err error) *errors.ErrValidation {
	fields := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			fields[prefix+fieldPath(e)] = validationMessage(e)
		}
	} else {
		fields[strings.TrimSuffix(prefix, ".")] = err.Error()
	}

	if message != "" {
		message = message + ": " + firstFieldMessage(fields)
	}
	return &errors.ErrValidation{Message: message, Fields: fields}
}

// fieldPath drops the root struct name from the namespace
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func firstFieldMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0] + ": " + strings.ToLower(fields[keys[0]][:1]) + fields[keys[0]][1:]
}

func validationMessage(e validator.FieldError) string {
	if e.Field() == "country" && (e.Tag() == "len" || e.Tag() == "alpha") {
		return "Must be a 2-letter ISO country code (e.g. US)"
	}

	switch e.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "gt":
		return "Must be greater than " + e.Param()
	case "alpha":
		return "Must contain only letters"
	default:
		return "Invalid value"
	}
}
