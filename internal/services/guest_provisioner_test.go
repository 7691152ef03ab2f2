package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lumenmart/api/internal/domain"
)

func TestProvisionCreatesGuestAccount(t *testing.T) {
	users := newMemoryUserRepo()
	provisioner := mustGuestProvisioner(t, GuestProvisionerDeps{
		Users: users,
		Clock: fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})

	result, err := provisioner.Provision(context.Background(), CustomerInput{
		Email:     "Guest@Example.com",
		FirstName: "Guest",
		LastName:  "Buyer",
		Phone:     "+91 90000 00000",
	})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}

	if !result.Created {
		t.Fatalf("expected a freshly created account")
	}
	if result.User.Email != "guest@example.com" {
		t.Fatalf("email must be stored lowercased, got %q", result.User.Email)
	}
	if !result.User.IsGuest {
		t.Fatalf("provisioned account must be flagged guest")
	}
	if len(result.GeneratedPassword) != 16 {
		t.Fatalf("generated password length = %d, want 16", len(result.GeneratedPassword))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte(result.GeneratedPassword)); err != nil {
		t.Fatalf("stored hash does not verify the plaintext: %v", err)
	}
	if result.User.PasswordHash == result.GeneratedPassword {
		t.Fatalf("plaintext must never be persisted")
	}
}

func TestProvisionReusesExistingAccount(t *testing.T) {
	users := newMemoryUserRepo()
	existing := domain.User{ID: "usr_1", Email: "guest@example.com", IsGuest: true}
	users.byID[existing.ID] = existing
	users.byEmail[existing.Email] = existing.ID

	provisioner := mustGuestProvisioner(t, GuestProvisionerDeps{Users: users})

	result, err := provisioner.Provision(context.Background(), CustomerInput{Email: "GUEST@example.com"})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if result.Created {
		t.Fatalf("existing account must be reused, not recreated")
	}
	if result.User.ID != "usr_1" {
		t.Fatalf("user = %q, want usr_1", result.User.ID)
	}
	if result.GeneratedPassword != "" {
		t.Fatalf("reuse must not mint a new credential")
	}
	if users.creates != 0 {
		t.Fatalf("no create call expected, got %d", users.creates)
	}
}

func TestProvisionRecoversFromCreationRace(t *testing.T) {
	users := newMemoryUserRepo()
	winner := domain.User{ID: "usr_winner", Email: "guest@example.com", IsGuest: true}

	lookups := 0
	racing := &racingUserRepo{
		inner: users,
		onFindByEmail: func() (domain.User, bool, error) {
			lookups++
			if lookups == 1 {
				// First lookup misses; the concurrent checkout wins between
				// lookup and create.
				return domain.User{}, false, nil
			}
			return winner, true, nil
		},
	}

	provisioner := mustGuestProvisioner(t, GuestProvisionerDeps{Users: racing})

	result, err := provisioner.Provision(context.Background(), CustomerInput{Email: "guest@example.com"})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if result.Created {
		t.Fatalf("losing the race must fall back to reuse")
	}
	if result.User.ID != "usr_winner" {
		t.Fatalf("user = %q, want the race winner", result.User.ID)
	}
}

func TestProvisionRequiresEmail(t *testing.T) {
	provisioner := mustGuestProvisioner(t, GuestProvisionerDeps{Users: newMemoryUserRepo()})

	_, err := provisioner.Provision(context.Background(), CustomerInput{FirstName: "Guest"})
	if !errors.Is(err, ErrGuestInvalidInput) {
		t.Fatalf("got %v, want ErrGuestInvalidInput", err)
	}
}

// racingUserRepo simulates a concurrent checkout claiming the email between
// the availability check and the create.
type racingUserRepo struct {
	inner         *memoryUserRepo
	onFindByEmail func() (domain.User, bool, error)
}

func (r *racingUserRepo) FindByID(ctx context.Context, userID string) (domain.User, error) {
	return r.inner.FindByID(ctx, userID)
}

func (r *racingUserRepo) FindByEmail(context.Context, string) (domain.User, bool, error) {
	return r.onFindByEmail()
}

func (r *racingUserRepo) Create(context.Context, domain.User) error {
	return &fakeRepoError{conflict: true}
}
