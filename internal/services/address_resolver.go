package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lumenmart/api/internal/domain"
)

// AddressPlaceholder is the sentinel written into shipping address fields that
// could not be resolved at checkout time. Orders carrying it need a follow-up
// confirmation before fulfillment.
const AddressPlaceholder = "Address to be confirmed"

var (
	// ErrAddressValidation reports missing required address fields on
	// standard checkout.
	ErrAddressValidation = errors.New("address: validation failed")
	// ErrAddressUnresolvable indicates no usable address could be produced
	// for a flow that requires one.
	ErrAddressUnresolvable = errors.New("address: unresolvable")
)

// AddressResolveContext carries everything the resolver may draw from. All
// fields are optional; the resolution chain degrades gracefully.
type AddressResolveContext struct {
	// SelectedAddressID references one of the Saved entries.
	SelectedAddressID string
	// Form holds caller-typed address fields.
	Form AddressInput
	// Saved is the user's address book, defaults first.
	Saved []domain.Address
	// ProfileName and ProfilePhone seed the synthetic fallback.
	ProfileName  string
	ProfilePhone string
	// Express skips field validation and permits the synthetic fallback.
	Express bool
}

// AddressResolution is the resolver output. ConfirmationRequired is set when
// the address contains placeholder fields that must be confirmed post-order.
type AddressResolution struct {
	Address              domain.ShippingAddress
	ConfirmationRequired bool
}

// ResolveShippingAddress picks the shipping address for an order. The chain,
// first match wins: explicitly selected saved address, filled form, saved
// default (or first saved), synthetic placeholder. Standard checkout instead
// validates the form strictly and never synthesises.
func ResolveShippingAddress(rc AddressResolveContext) (AddressResolution, error) {
	if !rc.Express {
		return resolveStrict(rc.Form)
	}

	if selected, ok := findSavedAddress(rc.Saved, rc.SelectedAddressID); ok {
		return AddressResolution{Address: snapshotSaved(selected)}, nil
	}

	if formUsable(rc.Form) {
		return AddressResolution{Address: snapshotForm(rc.Form)}, nil
	}

	if len(rc.Saved) > 0 {
		return AddressResolution{Address: snapshotSaved(pickSaved(rc.Saved))}, nil
	}

	name := strings.TrimSpace(rc.ProfileName)
	if name == "" {
		name = AddressPlaceholder
	}
	return AddressResolution{
		Address: domain.ShippingAddress{
			Name:    name,
			Street:  AddressPlaceholder,
			City:    AddressPlaceholder,
			State:   AddressPlaceholder,
			ZipCode: AddressPlaceholder,
			Country: AddressPlaceholder,
			Phone:   strings.TrimSpace(rc.ProfilePhone),
		},
		ConfirmationRequired: true,
	}, nil
}

func resolveStrict(form AddressInput) (AddressResolution, error) {
	required := []struct {
		name  string
		value string
	}{
		{"name", form.Name},
		{"street", form.Street},
		{"city", form.City},
		{"state", form.State},
		{"zipCode", form.ZipCode},
		{"phone", form.Phone},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) == len(required) {
		return AddressResolution{}, fmt.Errorf("%w: no address supplied", ErrAddressUnresolvable)
	}
	if len(missing) > 0 {
		return AddressResolution{}, fmt.Errorf("%w: missing %s", ErrAddressValidation, strings.Join(missing, ", "))
	}
	return AddressResolution{Address: snapshotForm(form)}, nil
}

// formUsable reports whether the form carries enough for express checkout:
// name, street, and city at minimum.
func formUsable(form AddressInput) bool {
	return strings.TrimSpace(form.Name) != "" &&
		strings.TrimSpace(form.Street) != "" &&
		strings.TrimSpace(form.City) != ""
}

func findSavedAddress(saved []domain.Address, id string) (domain.Address, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Address{}, false
	}
	for _, addr := range saved {
		if addr.ID == id {
			return addr, true
		}
	}
	return domain.Address{}, false
}

// pickSaved prefers the default entry, falling back to the first.
func pickSaved(saved []domain.Address) domain.Address {
	for _, addr := range saved {
		if addr.IsDefault {
			return addr
		}
	}
	return saved[0]
}

func snapshotSaved(addr domain.Address) domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    addr.Name,
		Street:  addr.Street,
		City:    addr.City,
		State:   addr.State,
		ZipCode: addr.ZipCode,
		Country: addr.Country,
		Phone:   addr.Phone,
	}
}

func snapshotForm(form AddressInput) domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    strings.TrimSpace(form.Name),
		Street:  strings.TrimSpace(form.Street),
		City:    strings.TrimSpace(form.City),
		State:   strings.TrimSpace(form.State),
		ZipCode: strings.TrimSpace(form.ZipCode),
		Country: strings.TrimSpace(form.Country),
		Phone:   strings.TrimSpace(form.Phone),
	}
}
