package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/repositories"
)

var (
	// ErrAddressInvalidInput signals missing or malformed address fields.
	ErrAddressInvalidInput = errors.New("address: invalid input")
	// ErrAddressNotFound indicates the address could not be located.
	ErrAddressNotFound = errors.New("address: not found")
)

// AddressServiceDeps bundles collaborators for the address book service.
type AddressServiceDeps struct {
	Addresses repositories.AddressRepository
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type addressService struct {
	addresses repositories.AddressRepository
	logger    func(context.Context, string, map[string]any)
}

// NewAddressService wires dependencies into an AddressService.
func NewAddressService(deps AddressServiceDeps) (AddressService, error) {
	if deps.Addresses == nil {
		return nil, errors.New("address service: address repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &addressService{addresses: deps.Addresses, logger: logger}, nil
}

func (s *addressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrAddressInvalidInput)
	}
	addresses, err := s.addresses.List(ctx, uid)
	if err != nil {
		return nil, mapAddressRepositoryError(err)
	}
	return addresses, nil
}

func (s *addressService) Save(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Address{}, fmt.Errorf("%w: user id is required", ErrAddressInvalidInput)
	}
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" || strings.TrimSpace(addr.ZipCode) == "" {
		return domain.Address{}, fmt.Errorf("%w: street, city and zip code are required", ErrAddressInvalidInput)
	}
	if addr.Type == "" {
		addr.Type = domain.AddressTypeHome
	}
	if !addr.Type.Valid() {
		return domain.Address{}, fmt.Errorf("%w: unknown address type %q", ErrAddressInvalidInput, addr.Type)
	}

	saved, err := s.addresses.Upsert(ctx, uid, addressID, addr)
	if err != nil {
		return domain.Address{}, mapAddressRepositoryError(err)
	}
	return saved, nil
}

func (s *addressService) Delete(ctx context.Context, userID, addressID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return fmt.Errorf("%w: user id is required", ErrAddressInvalidInput)
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return fmt.Errorf("%w: address id is required", ErrAddressInvalidInput)
	}
	if err := s.addresses.Delete(ctx, uid, id); err != nil {
		return mapAddressRepositoryError(err)
	}
	return nil
}

func mapAddressRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrAddressNotFound, err)
	}
	return err
}
