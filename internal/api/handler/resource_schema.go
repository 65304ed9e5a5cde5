package handler

import (
	"time"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type listRequest struct {
	Page          int      `query:"page"          validate:"omitempty,min=1"`
	ItemsPerPage  int      `query:"itemsPerPage"  validate:"omitempty,min=1"`
	SortBy        string   `query:"sortBy"`
	SortDirection string   `query:"sortDirection" validate:"omitempty,oneof=asc desc"`
	Search        string   `query:"search"`
	SearchFields  []string `query:"searchField"`
	SearchValues  []string `query:"searchValue"`
	FieldID       string   `query:"fieldId"`
}

func (r listRequest) toQuery() domain.ListQuery {
	return domain.ListQuery{
		Page:          r.Page,
		ItemsPerPage:  r.ItemsPerPage,
		SortBy:        r.SortBy,
		SortDirection: domain.SortDirection(r.SortDirection),
		Search:        r.Search,
		SearchFields:  r.SearchFields,
		SearchValues:  r.SearchValues,
		FieldID:       r.FieldID,
	}
}

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// recordResponse is a record flattened into one JSON object: resource
// attributes next to the lifecycle fields, which always win on key clashes.
type recordResponse map[string]any

func toRecordResponse(r *domain.Record) recordResponse {
	if r == nil {
		return nil
	}
	out := make(recordResponse, len(r.Attributes)+5)
	for k, v := range r.Attributes {
		out[k] = v
	}
	out["id"] = r.ID
	out["fieldId"] = r.FieldID
	out["deleted"] = formatTime(r.Deleted)
	out["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["updatedAt"] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return out
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

type pageResponse struct {
	Data       []recordResponse `json:"data"`
	TotalCount int64            `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

func toPageResponse(p *domain.Page) pageResponse {
	data := make([]recordResponse, 0, len(p.Data))
	for _, r := range p.Data {
		data = append(data, toRecordResponse(r))
	}
	return pageResponse{Data: data, TotalCount: p.TotalCount, TotalPages: p.TotalPages}
}

type batchResponse struct {
	Count int64 `json:"count"`
}
