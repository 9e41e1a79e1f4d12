package store

import (
	"context"
	"errors"
	"time"

	"github.com/castellan/castellan/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx/WithTx pair so validation, guard counts and writes can
// share one transaction.
type Store interface {
	References() References
	Accounts() Accounts
	Clients() Clients

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type References interface {
	// GetByID fetches a reference of any kind by its id.
	GetByID(ctx context.Context, id string) (domain.Reference, error)

	// GetByName fetches a reference by its kind-scoped unique name.
	GetByName(ctx context.Context, kind domain.Kind, name string) (domain.Reference, error)

	// List returns all references of one kind ordered by name.
	List(ctx context.Context, kind domain.Kind) ([]domain.Reference, error)

	// Create inserts a new reference (id is provided by the service via ULID).
	Create(ctx context.Context, r domain.Reference) error

	// Update rewrites name and description and bumps updated_at.
	Update(ctx context.Context, r domain.Reference) error

	// Delete removes a reference. Link rows cascade per schema.
	Delete(ctx context.Context, id string) error

	// CountByName counts references of a kind with the given name, excluding
	// excludeID when non-empty. Used for uniqueness checks inside a tx.
	CountByName(ctx context.Context, kind domain.Kind, name, excludeID string) (int, error)

	// CountClientLinks counts clients linked to the reference.
	CountClientLinks(ctx context.Context, refID string) (int, error)

	// CountAccountLinks counts accounts linked to the role reference.
	CountAccountLinks(ctx context.Context, roleID string) (int, error)
}

type Accounts interface {
	// GetByID fetches an account with its roles hydrated.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByUsername fetches an account by its unique username.
	GetByUsername(ctx context.Context, username string) (domain.Account, error)

	// List returns all accounts ordered by username.
	List(ctx context.Context) ([]domain.Account, error)

	// Create inserts the account and its role links.
	Create(ctx context.Context, a domain.Account) error

	// Update rewrites the mutable fields and replaces the role links.
	Update(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the password_hash and updated_at. The caller
	// computes updatedAt so the strictly-increasing invariant holds.
	UpdatePasswordHash(ctx context.Context, accountID, newHash string, updatedAt time.Time) error

	// Delete removes the account. Role links cascade per schema.
	Delete(ctx context.Context, id string) error

	// CountByUsername counts accounts with the username, excluding excludeID
	// when non-empty.
	CountByUsername(ctx context.Context, username, excludeID string) (int, error)
}

type Clients interface {
	// GetByID fetches a client with all embedded reference sets hydrated.
	GetByID(ctx context.Context, id string) (domain.Client, error)

	// GetByClientID fetches a client by its natural key.
	GetByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// List returns all clients ordered by client_id.
	List(ctx context.Context) ([]domain.Client, error)

	// Create inserts the client row and its reference links.
	Create(ctx context.Context, c domain.Client) error

	// Update rewrites the client row and replaces the reference links.
	Update(ctx context.Context, c domain.Client) error

	// Delete removes the client. Link rows cascade per schema.
	Delete(ctx context.Context, id string) error

	// CountByClientID counts clients with the client_id, excluding excludeID
	// when non-empty.
	CountByClientID(ctx context.Context, clientID, excludeID string) (int, error)

	// IsEmpty returns true if there are no clients. Used for bootstrap.
	IsEmpty(ctx context.Context) (bool, error)
}
