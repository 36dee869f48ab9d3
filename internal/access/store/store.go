package store

import (
	"context"
	"errors"

	"github.com/relaysuite/trustcore/internal/access/domain"
)

// ErrNotFound is returned when a lookup matches nothing. Callers translate
// it into their own failure vocabulary (the gate maps it to forbidden, the
// token flows to invalid credentials).
var ErrNotFound = errors.New("store: not found")

// UserRepository is the persistence contract the trust core requires from
// the surrounding platform. User and tenant CRUD live elsewhere; this core
// only ever reads identities and writes password hashes.
type UserRepository interface {
	// FindByID loads a user with its owning tenant attached.
	FindByID(ctx context.Context, id int64) (*domain.User, error)

	// FindByEmail loads a user by email for the login flow.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByAPIKey resolves an API key fingerprint to a principal. The raw
	// key is never stored; see cryptox.FingerprintToken.
	FindByAPIKey(ctx context.Context, fingerprint string) (domain.Principal, error)

	// UpdatePasswordHash replaces a user's password hash (reset flow).
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}
