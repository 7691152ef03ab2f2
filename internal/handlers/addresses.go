package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/platform/httpx"
	"github.com/lumenmart/api/internal/services"
)

// AddressHandlers exposes the /user/addresses sub-resource. The owning user
// and target address travel as query parameters, matching the storefront
// client contract.
type AddressHandlers struct {
	addresses services.AddressService
}

// NewAddressHandlers constructs address book endpoints.
func NewAddressHandlers(addresses services.AddressService) *AddressHandlers {
	return &AddressHandlers{addresses: addresses}
}

// Routes registers the address CRUD endpoints.
func (h *AddressHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listAddresses)
	r.Post("/", h.saveAddress)
	r.Put("/", h.saveAddress)
	r.Delete("/", h.deleteAddress)
}

func (h *AddressHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "userId query parameter is required", http.StatusBadRequest))
		return
	}

	addresses, err := h.addresses.List(ctx, userID)
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}

	payload := make([]savedAddressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, toSavedAddressPayload(addr))
	}
	httpx.WriteSuccess(w, http.StatusOK, payload)
}

type saveAddressRequest struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

// saveAddress handles both POST (create) and PUT (update via addressId).
func (h *AddressHandlers) saveAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("userId"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "userId query parameter is required", http.StatusBadRequest))
		return
	}

	var addressID *string
	if id := strings.TrimSpace(query.Get("addressId")); id != "" {
		addressID = &id
	}
	if r.Method == http.MethodPut && addressID == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "addressId query parameter is required for updates", http.StatusBadRequest))
		return
	}

	var req saveAddressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	saved, err := h.addresses.Save(ctx, userID, addressID, domain.Address{
		Type:      domain.AddressType(strings.TrimSpace(req.Type)),
		Name:      strings.TrimSpace(req.Name),
		Street:    strings.TrimSpace(req.Street),
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		ZipCode:   strings.TrimSpace(req.ZipCode),
		Country:   strings.TrimSpace(req.Country),
		Phone:     strings.TrimSpace(req.Phone),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	httpx.WriteSuccess(w, status, toSavedAddressPayload(saved))
}

func (h *AddressHandlers) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("userId"))
	addressID := strings.TrimSpace(query.Get("addressId"))
	if userID == "" || addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "userId and addressId query parameters are required", http.StatusBadRequest))
		return
	}

	if err := h.addresses.Delete(ctx, userID, addressID); err != nil {
		httpx.WriteError(ctx, w, mapServiceError(err))
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"deleted": addressID})
}
