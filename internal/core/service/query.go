package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

// FindAll returns one page of active records. Structured filters must pair
// every field with a value; the mismatch is rejected before storage is touched.
func (s *Lifecycle) FindAll(ctx context.Context, q domain.ListQuery) (*domain.Page, error) {
	q = q.Normalize()

	filter, order, err := s.compile(q)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", s.def.Name, err)
	}

	page := &domain.Page{
		Data:       []*domain.Record{},
		TotalCount: total,
		TotalPages: domain.TotalPages(total, q.ItemsPerPage),
	}
	// Compared in pages so a huge page number cannot overflow the offset.
	if int64(q.Page-1) >= int64(page.TotalPages) {
		return page, nil
	}
	skip := (q.Page - 1) * q.ItemsPerPage

	recs, err := s.store.FindMany(ctx, filter, ports.Window{Skip: skip, Take: q.ItemsPerPage}, order)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.def.Name, err)
	}
	for _, r := range recs {
		page.Data = append(page.Data, s.present(r))
	}
	return page, nil
}

func (s *Lifecycle) compile(q domain.ListQuery) (ports.Filter, ports.Order, error) {
	if len(q.SearchFields) != len(q.SearchValues) {
		return ports.Filter{}, ports.Order{}, s.msgs.SearchParity()
	}

	filter := ports.Filter{
		FieldID: strings.TrimSpace(q.FieldID),
		Scope:   ports.ScopeActive,
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		filter.Search = search
		filter.SearchFields = s.def.Searchable
	}
	for i, field := range q.SearchFields {
		if !s.def.CanFilter(field) {
			return ports.Filter{}, ports.Order{}, s.msgs.UnknownFilter(field)
		}
		filter.Terms = append(filter.Terms, ports.Term{Field: field, Value: q.SearchValues[i]})
	}

	order := ports.Order{Field: ports.OrderCreatedAt, Desc: q.SortDirection == domain.SortDesc}
	if q.SortBy != "" {
		if !s.def.CanSort(q.SortBy) {
			return ports.Filter{}, ports.Order{}, s.msgs.UnknownSort(q.SortBy)
		}
		order.Field = q.SortBy
	}
	return filter, order, nil
}
