package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumenmart/api/internal/domain"
	"github.com/lumenmart/api/internal/repositories"
)

const (
	userIDPrefix = "usr_"

	generatedPasswordLength  = 16
	generatedPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrGuestInvalidInput signals missing purchaser details.
var ErrGuestInvalidInput = errors.New("guest: invalid input")

// GuestProvisionerDeps bundles collaborators for the guest account provisioner.
type GuestProvisionerDeps struct {
	Users       repositories.UserRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// GuestProvisioner ensures a guest checkout has an account to attach its
// order to, creating one lazily per email and reusing it afterwards.
type GuestProvisioner struct {
	users  repositories.UserRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewGuestProvisioner wires dependencies into a guest account provisioner.
func NewGuestProvisioner(deps GuestProvisionerDeps) (*GuestProvisioner, error) {
	if deps.Users == nil {
		return nil, errors.New("guest provisioner: user repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &GuestProvisioner{
		users:  deps.Users,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Provision returns the account for the email, creating a guest account with
// a generated credential when none exists. The plaintext password is returned
// exactly once for the notification collaborator and never persisted.
func (p *GuestProvisioner) Provision(ctx context.Context, customer CustomerInput) (GuestProvisionResult, error) {
	email := strings.ToLower(strings.TrimSpace(customer.Email))
	if email == "" {
		return GuestProvisionResult{}, fmt.Errorf("%w: email is required", ErrGuestInvalidInput)
	}

	existing, found, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		return GuestProvisionResult{}, err
	}
	if found {
		return GuestProvisionResult{User: existing}, nil
	}

	password, err := generatePassword()
	if err != nil {
		return GuestProvisionResult{}, fmt.Errorf("guest: generate credential: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return GuestProvisionResult{}, fmt.Errorf("guest: hash credential: %w", err)
	}

	now := p.clock()
	user := domain.User{
		ID:           userIDPrefix + p.newID(),
		Email:        email,
		FirstName:    strings.TrimSpace(customer.FirstName),
		LastName:     strings.TrimSpace(customer.LastName),
		Phone:        strings.TrimSpace(customer.Phone),
		PasswordHash: string(hash),
		IsGuest:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.users.Create(ctx, user); err != nil {
		// A concurrent checkout with the same email may have claimed it
		// first; fall back to the winner's account.
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			winner, found, lookupErr := p.users.FindByEmail(ctx, email)
			if lookupErr != nil {
				return GuestProvisionResult{}, lookupErr
			}
			if found {
				p.logger(ctx, "guest.provision.raced", map[string]any{"email": email, "user": winner.ID})
				return GuestProvisionResult{User: winner}, nil
			}
		}
		return GuestProvisionResult{}, err
	}

	p.logger(ctx, "guest.provision.created", map[string]any{"email": email, "user": user.ID})
	return GuestProvisionResult{User: user, Created: true, GeneratedPassword: password}, nil
}

func generatePassword() (string, error) {
	max := big.NewInt(int64(len(generatedPasswordCharset)))
	out := make([]byte, generatedPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = generatedPasswordCharset[n.Int64()]
	}
	return string(out), nil
}
