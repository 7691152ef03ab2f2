package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/lumenmart/api/internal/domain"
)

func savedAddressFixtures() []domain.Address {
	return []domain.Address{
		{ID: "addr_1", Name: "Asha Rao", Street: "12 Hill Road", City: "Mumbai", State: "MH", ZipCode: "400050", Country: "IN", Phone: "+91 98200 00000"},
		{ID: "addr_2", Name: "Asha Rao", Street: "7 Lake View", City: "Pune", State: "MH", ZipCode: "411001", Country: "IN", IsDefault: true},
	}
}

func TestResolveSelectedAddressWinsOverForm(t *testing.T) {
	res, err := ResolveShippingAddress(AddressResolveContext{
		SelectedAddressID: "addr_1",
		Form:              AddressInput{Name: "Other Person", Street: "99 Elsewhere", City: "Delhi"},
		Saved:             savedAddressFixtures(),
		Express:           true,
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if res.Address.Street != "12 Hill Road" {
		t.Fatalf("street = %q, selected saved address must win", res.Address.Street)
	}
	if res.ConfirmationRequired {
		t.Fatalf("saved address must not require confirmation")
	}
}

func TestResolveFormUsedWhenNoSelection(t *testing.T) {
	res, err := ResolveShippingAddress(AddressResolveContext{
		Form:    AddressInput{Name: "Asha Rao", Street: "3 Form Street", City: "Delhi"},
		Saved:   savedAddressFixtures(),
		Express: true,
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if res.Address.Street != "3 Form Street" {
		t.Fatalf("street = %q, filled form must win over saved defaults", res.Address.Street)
	}
}

func TestResolvePrefersDefaultSavedAddress(t *testing.T) {
	res, err := ResolveShippingAddress(AddressResolveContext{
		Saved:   savedAddressFixtures(),
		Express: true,
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if res.Address.Street != "7 Lake View" {
		t.Fatalf("street = %q, default-flagged address must win", res.Address.Street)
	}
}

func TestResolveFallsBackToFirstSavedAddress(t *testing.T) {
	saved := savedAddressFixtures()
	saved[1].IsDefault = false

	res, err := ResolveShippingAddress(AddressResolveContext{Saved: saved, Express: true})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if res.Address.Street != "12 Hill Road" {
		t.Fatalf("street = %q, first saved address must win without a default", res.Address.Street)
	}
}

func TestResolveSynthesisesPlaceholder(t *testing.T) {
	res, err := ResolveShippingAddress(AddressResolveContext{
		ProfileName:  "Asha Rao",
		ProfilePhone: "+91 98200 00000",
		Express:      true,
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if !res.ConfirmationRequired {
		t.Fatalf("synthetic fallback must signal confirmation required")
	}
	if res.Address.Name != "Asha Rao" || res.Address.Phone != "+91 98200 00000" {
		t.Fatalf("fallback must carry profile contact details: %+v", res.Address)
	}
	for _, field := range []string{res.Address.Street, res.Address.City, res.Address.State, res.Address.ZipCode} {
		if field != AddressPlaceholder {
			t.Fatalf("unresolved field = %q, want sentinel %q", field, AddressPlaceholder)
		}
	}
}

func TestResolveStrictRejectsPartialForm(t *testing.T) {
	_, err := ResolveShippingAddress(AddressResolveContext{
		Form: AddressInput{Name: "Asha Rao", Street: "12 Hill Road", City: "Mumbai"},
	})
	if !errors.Is(err, ErrAddressValidation) {
		t.Fatalf("got %v, want ErrAddressValidation", err)
	}
	for _, field := range []string{"state", "zipCode", "phone"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("error %q should name missing field %s", err, field)
		}
	}
}

func TestResolveStrictRejectsEmptyContext(t *testing.T) {
	_, err := ResolveShippingAddress(AddressResolveContext{})
	if !errors.Is(err, ErrAddressUnresolvable) {
		t.Fatalf("got %v, want ErrAddressUnresolvable", err)
	}
}

func TestResolveStrictAcceptsCompleteForm(t *testing.T) {
	res, err := ResolveShippingAddress(AddressResolveContext{
		Form: AddressInput{
			Name: "Asha Rao", Street: "12 Hill Road", City: "Mumbai",
			State: "MH", ZipCode: "400050", Country: "IN", Phone: "+91 98200 00000",
		},
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if res.ConfirmationRequired {
		t.Fatalf("complete form must not require confirmation")
	}
}
