package ports

import (
	"context"
	"errors"
	"time"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// ErrNoRecord is returned by a RecordStore when a single-row lookup or update
// matched nothing in the requested scope.
var ErrNoRecord = errors.New("no record matched")

// Scope selects rows by lifecycle state.
type Scope int

const (
	ScopeActive Scope = iota // deleted IS NULL (default)
	ScopeAll
)

// Term is one structured filter entry: a case-insensitive substring match on
// a single attribute.
type Term struct {
	Field string
	Value string
}

// Filter narrows a query. Zero values mean "no constraint".
type Filter struct {
	IDs          []string
	FieldID      string
	Scope        Scope
	Search       string
	SearchFields []string // attributes Search is matched against
	Terms        []Term
}

// Window is the pagination slice of a FindMany.
type Window struct {
	Skip int
	Take int
}

// Order sorts FindMany results. Field is an attribute name or one of the
// built-in columns (OrderCreatedAt, OrderUpdatedAt).
type Order struct {
	Field string
	Desc  bool
}

const (
	OrderCreatedAt = "createdAt"
	OrderUpdatedAt = "updatedAt"
)

// DeletedChange describes how a Mutation touches the deleted marker.
type DeletedChange int

const (
	DeletedKeep DeletedChange = iota
	DeletedMark
	DeletedClear
)

// Mutation is a partial update. Attributes are merged key by key.
type Mutation struct {
	FieldID    *string
	Attributes map[string]any
	Deleted    DeletedChange
	At         time.Time // becomes updatedAt, and deleted when Deleted == DeletedMark
}

// RecordStore is the persistence collaborator of one resource type.
// Implementations never apply tenant or role rules themselves.
type RecordStore interface {
	FindUnique(ctx context.Context, id string, scope Scope) (*domain.Record, error)
	FindFirst(ctx context.Context, filter Filter) (*domain.Record, error)
	FindMany(ctx context.Context, filter Filter, window Window, order Order) ([]*domain.Record, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Create(ctx context.Context, record *domain.Record) (*domain.Record, error)
	// Update applies m to the row id within scope and returns the updated row,
	// or ErrNoRecord when no row matched.
	Update(ctx context.Context, id string, scope Scope, m Mutation) (*domain.Record, error)
	UpdateMany(ctx context.Context, ids []string, m Mutation) (int64, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// InTx runs fn atomically. The store passed to fn is bound to the transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx RecordStore) error) error
}

// StoreProvider hands out the RecordStore of each resource collection.
type StoreProvider interface {
	Store(collection string) RecordStore
	Ping(ctx context.Context) error
}
