// Package policy decides which principal may act on which record.
//
// Existence is always checked before ownership: an absent record is reported
// as not found, never as forbidden. Web masters are exempt from every tenant
// check and are the only role that must name the tenant on create.
package policy

import (
	"strings"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// Policy applies the tenant rules for one resource type.
type Policy struct {
	noun domain.Noun
	msgs domain.Messages
}

func New(noun domain.Noun, msgs domain.Messages) Policy {
	return Policy{noun: noun, msgs: msgs}
}

// Create authorizes a create and fixes the tenant of payload in place.
// Non web masters always create inside their own field, whatever the payload says.
func (pl Policy) Create(p domain.Principal, payload *domain.Payload) error {
	if !p.IsWebMaster() {
		if p.FieldID == "" {
			return pl.msgs.Forbidden(pl.noun)
		}
		fieldID := p.FieldID
		payload.FieldID = &fieldID
		return nil
	}
	if payload.FieldID == nil || strings.TrimSpace(*payload.FieldID) == "" {
		return pl.msgs.MissingField()
	}
	trimField(payload)
	return nil
}

// Record authorizes a single-record mutation on rec, which is nil when the
// lookup found nothing.
func (pl Policy) Record(p domain.Principal, rec *domain.Record) error {
	if rec == nil {
		return pl.msgs.NotFound(pl.noun)
	}
	if !p.IsWebMaster() && rec.FieldID != p.FieldID {
		return pl.msgs.Forbidden(pl.noun)
	}
	return nil
}

// Update strips tenant reassignment from non web master payloads. A web master
// may move the record to another field but not to an empty one.
func (pl Policy) Update(p domain.Principal, payload *domain.Payload) error {
	if !p.IsWebMaster() {
		payload.FieldID = nil
		return nil
	}
	if payload.FieldID != nil && strings.TrimSpace(*payload.FieldID) == "" {
		return pl.msgs.MissingField()
	}
	trimField(payload)
	return nil
}

func trimField(payload *domain.Payload) {
	if payload.FieldID != nil {
		fieldID := strings.TrimSpace(*payload.FieldID)
		payload.FieldID = &fieldID
	}
}

// Batch authorizes a restore or hard-remove of ids given the rows one query
// found for them. Every requested id must exist, and for non web masters a
// single foreign row rejects the whole batch.
func (pl Policy) Batch(p domain.Principal, ids []string, found []*domain.Record) error {
	if len(found) == 0 || len(found) < len(Distinct(ids)) {
		return pl.msgs.NotFoundMany(pl.noun)
	}
	if p.IsWebMaster() {
		return nil
	}
	for _, rec := range found {
		if rec.FieldID != p.FieldID {
			return pl.msgs.ForbiddenMany(pl.noun)
		}
	}
	return nil
}

// Distinct returns ids without duplicates or blanks, preserving order.
func Distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
