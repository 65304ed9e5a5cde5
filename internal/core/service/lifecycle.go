package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/policy"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
	"github.com/fieldwork/backoffice-api/internal/core/resources"
)

// reserved attributes are owned by the engine and never taken from payloads.
var reserved = []string{"id", "fieldId", "deleted", "createdAt", "updatedAt"}

// Lifecycle is the create/list/update/soft-delete/restore/purge engine of a
// single resource type. It holds no state between calls.
type Lifecycle struct {
	def    resources.Definition
	store  ports.RecordStore
	idem   ports.IdempotencyStore
	policy policy.Policy
	msgs   domain.Messages
	noun   domain.Noun
	log    zerolog.Logger
	now    func() time.Time
}

// Option customises a Lifecycle.
type Option func(*Lifecycle)

// WithIdempotency enables Idempotency-Key replays on create.
func WithIdempotency(store ports.IdempotencyStore) Option {
	return func(s *Lifecycle) { s.idem = store }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Lifecycle) { s.now = now }
}

func NewLifecycle(def resources.Definition, store ports.RecordStore, msgs domain.Messages, logger zerolog.Logger, opts ...Option) *Lifecycle {
	noun := def.Noun(msgs.Locale())
	s := &Lifecycle{
		def:    def,
		store:  store,
		policy: policy.New(noun, msgs),
		msgs:   msgs,
		noun:   noun,
		log:    logger.With().Str("resource", def.Name).Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new active record. Non web masters always create inside
// their own field; web masters must name one.
func (s *Lifecycle) Create(ctx context.Context, p domain.Principal, payload domain.Payload, idempotencyKey string) (*ports.CreateResult, error) {
	payload = clonePayload(payload)
	if err := s.policy.Create(p, &payload); err != nil {
		s.deny(p, "create", err)
		return nil, err
	}
	for _, attr := range s.def.Required {
		if isBlank(payload.Attributes[attr]) {
			return nil, s.msgs.Required(attr)
		}
	}

	if replay := s.replay(ctx, p, idempotencyKey); replay != nil {
		return &ports.CreateResult{Record: s.present(replay), AlreadyExisted: true}, nil
	}

	attrs, err := s.prepare(payload.Attributes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	created, err := s.store.Create(ctx, &domain.Record{
		FieldID:    *payload.FieldID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Attributes: attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.def.Name, err)
	}

	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, s.idemScope(p), idempotencyKey, created.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("failed to remember idempotency key")
		}
	}

	s.log.Info().
		Str("id", created.ID).
		Str("field_id", created.FieldID).
		Str("principal_id", p.ID).
		Msg("record created")
	return &ports.CreateResult{Record: s.present(created)}, nil
}

// FindOne returns the active record id, or nil when it is absent or
// soft-deleted. It never reports absence as an error.
func (s *Lifecycle) FindOne(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := s.store.FindUnique(ctx, id, ports.ScopeActive)
	if errors.Is(err, ports.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.def.Name, err)
	}
	return s.present(rec), nil
}

// Update partially updates an active record.
func (s *Lifecycle) Update(ctx context.Context, id string, p domain.Principal, payload domain.Payload) (*domain.Record, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Record(p, rec); err != nil {
		s.deny(p, "update", err)
		return nil, err
	}

	payload = clonePayload(payload)
	if err := s.policy.Update(p, &payload); err != nil {
		return nil, err
	}
	attrs, err := s.prepare(payload.Attributes)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, ports.ScopeActive, ports.Mutation{
		FieldID:    payload.FieldID,
		Attributes: attrs,
		At:         s.now(),
	})
	if errors.Is(err, ports.ErrNoRecord) {
		return nil, s.msgs.NotFound(s.noun)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.def.Name, err)
	}

	ev := s.log.Info().Str("id", id).Str("principal_id", p.ID)
	if payload.FieldID != nil && *payload.FieldID != rec.FieldID {
		ev = ev.Str("from_field_id", rec.FieldID).Str("to_field_id", *payload.FieldID)
	}
	ev.Msg("record updated")
	return s.present(updated), nil
}

// Remove soft-deletes an active record. Removing an already removed record
// reports not found.
func (s *Lifecycle) Remove(ctx context.Context, id string, p domain.Principal) (*domain.Record, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Record(p, rec); err != nil {
		s.deny(p, "remove", err)
		return nil, err
	}

	removed, err := s.store.Update(ctx, id, ports.ScopeActive, ports.Mutation{
		Deleted: ports.DeletedMark,
		At:      s.now(),
	})
	if errors.Is(err, ports.ErrNoRecord) {
		return nil, s.msgs.NotFound(s.noun)
	}
	if err != nil {
		return nil, fmt.Errorf("remove %s: %w", s.def.Name, err)
	}

	s.log.Info().Str("id", id).Str("field_id", rec.FieldID).Str("principal_id", p.ID).Msg("record removed")
	return s.present(removed), nil
}

// Restore clears the deleted marker of every id. The existence check, the
// tenant check and the update run in one transaction; any failure leaves
// every id untouched.
func (s *Lifecycle) Restore(ctx context.Context, ids []string, p domain.Principal) (int64, error) {
	return s.batch(ctx, "restore", ids, p, func(ctx context.Context, tx ports.RecordStore, ids []string) (int64, error) {
		return tx.UpdateMany(ctx, ids, ports.Mutation{Deleted: ports.DeletedClear, At: s.now()})
	})
}

// HardRemove physically deletes every id. Same all-or-nothing rules as Restore.
func (s *Lifecycle) HardRemove(ctx context.Context, ids []string, p domain.Principal) (int64, error) {
	return s.batch(ctx, "hard_remove", ids, p, func(ctx context.Context, tx ports.RecordStore, ids []string) (int64, error) {
		return tx.DeleteMany(ctx, ids)
	})
}

type batchMutation func(ctx context.Context, tx ports.RecordStore, ids []string) (int64, error)

func (s *Lifecycle) batch(ctx context.Context, op string, ids []string, p domain.Principal, mutate batchMutation) (int64, error) {
	ids = policy.Distinct(ids)
	if len(ids) == 0 {
		return 0, s.msgs.EmptyIDs()
	}

	var affected int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.RecordStore) error {
		found, err := tx.FindMany(ctx, ports.Filter{IDs: ids, Scope: ports.ScopeAll}, ports.Window{}, ports.Order{})
		if err != nil {
			return err
		}
		if err := s.policy.Batch(p, ids, found); err != nil {
			return err
		}
		n, err := mutate(ctx, tx, ids)
		if err != nil {
			return err
		}
		// A row vanished between the check and the mutation.
		if n != int64(len(ids)) {
			return s.msgs.NotFoundMany(s.noun)
		}
		affected = n
		return nil
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			s.deny(p, op, err)
			return 0, err
		}
		return 0, fmt.Errorf("%s %s: %w", op, s.def.Name, err)
	}

	s.log.Info().
		Str("operation", op).
		Strs("ids", ids).
		Str("principal_id", p.ID).
		Int64("affected", affected).
		Msg("batch applied")
	return affected, nil
}

// lookup loads an active record for an authorization check; absence is nil.
func (s *Lifecycle) lookup(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := s.store.FindFirst(ctx, ports.Filter{IDs: []string{id}, Scope: ports.ScopeActive})
	if errors.Is(err, ports.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.def.Name, err)
	}
	return rec, nil
}

func (s *Lifecycle) replay(ctx context.Context, p domain.Principal, key string) *domain.Record {
	if key == "" || s.idem == nil {
		return nil
	}
	id, err := s.idem.Lookup(ctx, s.idemScope(p), key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if id == "" {
		return nil
	}
	rec, err := s.store.FindUnique(ctx, id, ports.ScopeActive)
	if err != nil {
		return nil
	}
	s.log.Info().Str("idempotency_key", key).Str("id", id).Msg("idempotent replay")
	return rec
}

func (s *Lifecycle) idemScope(p domain.Principal) string {
	return s.def.Name + ":" + p.ID
}

// prepare strips engine-owned and hidden keys, then runs the resource hook.
// Hidden attributes are only ever written by the hook.
func (s *Lifecycle) prepare(in map[string]any) (map[string]any, error) {
	attrs := make(map[string]any, len(in))
	for k, v := range in {
		if !resources.ValidAttribute(k) {
			return nil, s.msgs.InvalidAttribute(k)
		}
		if s.def.IsHidden(k) {
			continue
		}
		attrs[k] = v
	}
	for _, k := range reserved {
		delete(attrs, k)
	}
	if s.def.Hook != nil {
		if err := s.def.Hook(attrs); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// present hides attributes that must never leave the service.
func (s *Lifecycle) present(rec *domain.Record) *domain.Record {
	if rec == nil || len(s.def.Hidden) == 0 {
		return rec
	}
	out := rec.Clone()
	for _, attr := range s.def.Hidden {
		delete(out.Attributes, attr)
	}
	return out
}

func (s *Lifecycle) deny(p domain.Principal, op string, err error) {
	s.log.Warn().
		Str("operation", op).
		Str("principal_id", p.ID).
		Str("role", string(p.Role)).
		Str("field_id", p.FieldID).
		Str("reason", err.Error()).
		Msg("operation denied")
}

func clonePayload(p domain.Payload) domain.Payload {
	out := domain.Payload{Attributes: make(map[string]any, len(p.Attributes))}
	if p.FieldID != nil {
		f := *p.FieldID
		out.FieldID = &f
	}
	for k, v := range p.Attributes {
		out.Attributes[k] = v
	}
	return out
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
