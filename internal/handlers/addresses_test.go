package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/services"
)

type stubAddressService struct {
	listFn   func(context.Context, string) ([]domain.Address, error)
	saveFn   func(context.Context, string, *string, domain.Address) (domain.Address, error)
	deleteFn func(context.Context, string, string) error
}

func (s *stubAddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubAddressService) Save(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, userID, addressID, addr)
	}
	return domain.Address{}, errors.New("not implemented")
}

func (s *stubAddressService) Delete(ctx context.Context, userID, addressID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, addressID)
	}
	return nil
}

func newAddressRouter(svc services.AddressService) http.Handler {
	return NewRouter(WithAddressHandlers(NewAddressHandlers(svc)))
}

func TestListAddressesRequiresUserID(t *testing.T) {
	router := newAddressRouter(&stubAddressService{})

	req := httptest.NewRequest(http.MethodGet, "/user/addresses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope["success"] != false {
		t.Fatalf("expected failure envelope: %v", envelope)
	}
}

func TestListAddressesReturnsBook(t *testing.T) {
	svc := &stubAddressService{listFn: func(_ context.Context, userID string) ([]domain.Address, error) {
		if userID != "usr_1" {
			t.Fatalf("userID = %q", userID)
		}
		return []domain.Address{
			{ID: "addr_1", Type: domain.AddressTypeHome, Street: "12 Hill Road", City: "Mumbai", ZipCode: "400050", IsDefault: true},
		}, nil
	}}
	router := newAddressRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/user/addresses?userId=usr_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	data, ok := envelope["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one address: %v", envelope)
	}
	first := data[0].(map[string]any)
	if first["isDefault"] != true {
		t.Fatalf("isDefault not serialised: %v", first)
	}
}

func TestCreateAddressEndpoint(t *testing.T) {
	var capturedID *string
	svc := &stubAddressService{saveFn: func(_ context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error) {
		capturedID = addressID
		addr.ID = "addr_new"
		return addr, nil
	}}
	router := newAddressRouter(svc)

	body := `{"type":"Home","name":"Asha Rao","street":"12 Hill Road","city":"Mumbai","state":"MH","zipCode":"400050","country":"IN","isDefault":true}`
	req := httptest.NewRequest(http.MethodPost, "/user/addresses?userId=usr_1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if capturedID != nil {
		t.Fatalf("create must not pass an address id")
	}
}

func TestUpdateAddressRequiresAddressID(t *testing.T) {
	router := newAddressRouter(&stubAddressService{})

	req := httptest.NewRequest(http.MethodPut, "/user/addresses?userId=usr_1", strings.NewReader(`{"street":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteAddressEndpoint(t *testing.T) {
	deleted := ""
	svc := &stubAddressService{deleteFn: func(_ context.Context, userID, addressID string) error {
		deleted = userID + "/" + addressID
		return nil
	}}
	router := newAddressRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/user/addresses?userId=usr_1&addressId=addr_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if deleted != "usr_1/addr_1" {
		t.Fatalf("delete not forwarded: %q", deleted)
	}
}

func TestDeleteAddressNotFound(t *testing.T) {
	svc := &stubAddressService{deleteFn: func(context.Context, string, string) error {
		return fmt.Errorf("%w: gone", services.ErrAddressNotFound)
	}}
	router := newAddressRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/user/addresses?userId=usr_1&addressId=addr_9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
