package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/lumenmart/api/internal/domain"
	pfirestore "github.com/lumenmart/api/internal/platform/firestore"
	"github.com/lumenmart/api/internal/repositories"
)

const addressesSubcollection = "addresses"

// AddressRepository stores saved addresses under users/{userID}/addresses.
type AddressRepository struct {
	provider *pfirestore.Provider
	idGen    func() string
	now      func() time.Time
}

// NewAddressRepository constructs a Firestore-backed address repository.
func NewAddressRepository(provider *pfirestore.Provider, idGen func() string, now func() time.Time) (*AddressRepository, error) {
	if provider == nil {
		return nil, errors.New("address repository requires firestore provider")
	}
	if idGen == nil {
		return nil, errors.New("address repository requires id generator")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AddressRepository{provider: provider, idGen: idGen, now: now}, nil
}

// List returns all saved addresses for the user, defaults first.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}
	iter := coll.OrderBy("isDefault", firestore.Desc).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var addresses []domain.Address
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("addresses.list", err)
		}
		addr, err := decodeAddressSnapshot(snap)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// Get loads one saved address.
func (r *AddressRepository) Get(ctx context.Context, userID, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.get", err)
	}
	return decodeAddressSnapshot(snap)
}

// Upsert creates or replaces a saved address. Structural duplicates collapse
// onto the existing document, and at most one address keeps isDefault.
func (r *AddressRepository) Upsert(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}

	hash := domain.AddressHash(addr.Street, addr.City, addr.ZipCode)
	addr.NormalizedHash = hash

	targetID := ""
	if addressID != nil {
		targetID = strings.TrimSpace(*addressID)
	}
	if targetID == "" {
		// New writes fold into an existing structural duplicate when present.
		existing, found, err := r.FindByHash(ctx, userID, hash)
		if err != nil {
			return domain.Address{}, err
		}
		if found {
			targetID = existing.ID
			addr.CreatedAt = existing.CreatedAt
		}
	}

	isNew := targetID == ""
	if isNew {
		targetID = r.idGen()
	}

	now := r.now().UTC()
	if addr.CreatedAt.IsZero() {
		addr.CreatedAt = now
	}
	addr.UpdatedAt = now
	addr.ID = targetID

	ref := coll.Doc(targetID)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if !isNew {
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			current, err := decodeAddressSnapshot(snap)
			if err != nil {
				return err
			}
			addr.CreatedAt = current.CreatedAt
		}
		if addr.IsDefault {
			if err := clearDefaults(tx, coll, targetID); err != nil {
				return err
			}
		}
		return tx.Set(ref, encodeAddressDocument(addr))
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.upsert", err)
	}
	return addr, nil
}

// Delete removes a saved address.
func (r *AddressRepository) Delete(ctx context.Context, userID, addressID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return errors.New("address repository: address id is required")
	}
	ref := coll.Doc(id)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return pfirestore.WrapError("addresses.delete", err)
	}
	return nil
}

// FindByHash locates a saved address by its structural dedup key.
func (r *AddressRepository) FindByHash(ctx context.Context, userID, hash string) (domain.Address, bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, false, err
	}
	iter := coll.Where("normalizedHash", "==", hash).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, pfirestore.WrapError("addresses.findByHash", err)
	}
	addr, err := decodeAddressSnapshot(snap)
	if err != nil {
		return domain.Address{}, false, err
	}
	return addr, true, nil
}

// clearDefaults unsets isDefault on every other address inside the
// transaction so the flag stays unique per user. Reads complete before any
// write, which the transaction API requires.
func clearDefaults(tx *firestore.Transaction, coll *firestore.CollectionRef, keepID string) error {
	snaps, err := tx.Documents(coll.Where("isDefault", "==", true)).GetAll()
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if snap.Ref.ID == keepID {
			continue
		}
		if err := tx.Update(snap.Ref, []firestore.Update{{Path: "isDefault", Value: false}}); err != nil {
			return err
		}
	}
	return nil
}

func (r *AddressRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("address repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("address repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(usersCollection).Doc(uid).Collection(addressesSubcollection), nil
}

type addressDocument struct {
	Type           string    `firestore:"type"`
	Name           string    `firestore:"name"`
	Street         string    `firestore:"street"`
	City           string    `firestore:"city"`
	State          string    `firestore:"state"`
	ZipCode        string    `firestore:"zipCode"`
	Country        string    `firestore:"country"`
	Phone          string    `firestore:"phone,omitempty"`
	IsDefault      bool      `firestore:"isDefault"`
	NormalizedHash string    `firestore:"normalizedHash"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func encodeAddressDocument(addr domain.Address) addressDocument {
	return addressDocument{
		Type:           string(addr.Type),
		Name:           addr.Name,
		Street:         addr.Street,
		City:           addr.City,
		State:          addr.State,
		ZipCode:        addr.ZipCode,
		Country:        addr.Country,
		Phone:          addr.Phone,
		IsDefault:      addr.IsDefault,
		NormalizedHash: addr.NormalizedHash,
		CreatedAt:      addr.CreatedAt.UTC(),
		UpdatedAt:      addr.UpdatedAt.UTC(),
	}
}

func decodeAddressSnapshot(snap *firestore.DocumentSnapshot) (domain.Address, error) {
	var doc addressDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Address{}, fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
	}
	return domain.Address{
		ID:             snap.Ref.ID,
		Type:           domain.AddressType(doc.Type),
		Name:           doc.Name,
		Street:         doc.Street,
		City:           doc.City,
		State:          doc.State,
		ZipCode:        doc.ZipCode,
		Country:        doc.Country,
		Phone:          doc.Phone,
		IsDefault:      doc.IsDefault,
		NormalizedHash: doc.NormalizedHash,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

var _ repositories.AddressRepository = (*AddressRepository)(nil)
