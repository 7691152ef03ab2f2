package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenmart/api/internal/domain"
	pfirestore "github.com/lumenmart/api/internal/platform/firestore"
	"github.com/lumenmart/api/internal/repositories"
)

const (
	usersCollection      = "users"
	userEmailsCollection = "userEmails"
)

// UserRepository stores accounts in Firestore. Email uniqueness is enforced
// with a lookup document keyed on the lowercased address, created in the same
// transaction as the user document.
type UserRepository struct {
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{provider: provider}, nil
}

// FindByID loads a user document.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	client, err := r.client(ctx)
	if err != nil {
		return domain.User{}, err
	}
	id := strings.TrimSpace(userID)
	if id == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}
	snap, err := client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return domain.User{}, pfirestore.WrapError("users.get", err)
	}
	return decodeUserSnapshot(snap)
}

// FindByEmail resolves a user via the lowercased email lookup document. The
// boolean result reports whether the account exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	client, err := r.client(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	key := emailKey(email)
	if key == "" {
		return domain.User{}, false, errors.New("user repository: email is required")
	}
	lookup, err := client.Collection(userEmailsCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, pfirestore.WrapError("users.findByEmail", err)
	}
	var ref emailLookupDocument
	if err := lookup.DataTo(&ref); err != nil {
		return domain.User{}, false, fmt.Errorf("decode email lookup %s: %w", key, err)
	}
	user, err := r.FindByID(ctx, ref.UserRef)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// Create inserts the user and claims its email atomically. A taken email
// surfaces as a conflict error.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(user.ID)
	if id == "" {
		return errors.New("user repository: user id is required")
	}
	key := emailKey(user.Email)
	if key == "" {
		return errors.New("user repository: email is required")
	}

	userRef := client.Collection(usersCollection).Doc(id)
	emailRef := client.Collection(userEmailsCollection).Doc(key)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(emailRef, emailLookupDocument{UserRef: id}); err != nil {
			return err
		}
		return tx.Create(userRef, encodeUserDocument(user))
	})
	if err != nil {
		return pfirestore.WrapError("users.create", err)
	}
	return nil
}

func (r *UserRepository) client(ctx context.Context) (*firestore.Client, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("user repository not initialised")
	}
	return r.provider.Client(ctx)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type emailLookupDocument struct {
	UserRef string `firestore:"userRef"`
}

type userDocument struct {
	Email        string    `firestore:"email"`
	FirstName    string    `firestore:"firstName,omitempty"`
	LastName     string    `firestore:"lastName,omitempty"`
	Phone        string    `firestore:"phone,omitempty"`
	PasswordHash string    `firestore:"passwordHash,omitempty"`
	IsGuest      bool      `firestore:"isGuest"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func encodeUserDocument(user domain.User) userDocument {
	return userDocument{
		Email:        emailKey(user.Email),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Phone:        user.Phone,
		PasswordHash: user.PasswordHash,
		IsGuest:      user.IsGuest,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

func decodeUserSnapshot(snap *firestore.DocumentSnapshot) (domain.User, error) {
	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.User{}, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	return domain.User{
		ID:           snap.Ref.ID,
		Email:        doc.Email,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		IsGuest:      doc.IsGuest,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)
