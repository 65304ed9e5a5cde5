package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldwork/backoffice-api/internal/api/metrics"
	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

// ResourceHandler serves the lifecycle endpoints of one catalog resource.
// Routes are registered per resource, so the swagger paths below use {resource}.
type ResourceHandler struct {
	resource string
	service  ports.ResourceService
}

func NewResourceHandler(resource string, service ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{resource: resource, service: service}
}

// Create handles POST /{resource}.
//
// @Summary      Create a record
// @Description  Non web masters always create inside their own field; web masters must send fieldId.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource         path      string          true   "Resource name (e.g. reports)"
// @Param        Idempotency-Key  header    string          false  "Replays the first create made with this key"
// @Param        body             body      recordResponse  true   "Record attributes, optionally fieldId"
// @Success      201              {object}  recordResponse
// @Success      200              {object}  recordResponse  "Idempotent replay"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /{resource} [post]
func (h *ResourceHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), p, payload, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return h.fail("create", err)
	}
	if res.AlreadyExisted {
		metrics.IdempotentReplaysTotal.WithLabelValues(h.resource).Inc()
		return c.JSON(http.StatusOK, toRecordResponse(res.Record))
	}
	h.mutated("create", 1)
	return c.JSON(http.StatusCreated, toRecordResponse(res.Record))
}

// FindAll handles GET /{resource}.
//
// @Summary      List active records
// @Tags         resources
// @Produce      json
// @Param        resource       path      string    true   "Resource name"
// @Param        page           query     int       false  "1-based page"                 default(1)
// @Param        itemsPerPage   query     int       false  "Page size, capped at 100"     default(10)
// @Param        sortBy         query     string    false  "Sortable attribute, createdAt or updatedAt"
// @Param        sortDirection  query     string    false  "asc or desc"                  Enums(asc, desc)
// @Param        search         query     string    false  "Free text over searchable attributes"
// @Param        searchField    query     []string  false  "Structured filter fields"     collectionFormat(multi)
// @Param        searchValue    query     []string  false  "Values paired with searchField" collectionFormat(multi)
// @Param        fieldId        query     string    false  "Only records of this field"
// @Success      200            {object}  pageResponse
// @Failure      400            {object}  errorResponse
// @Failure      500            {object}  errorResponse
// @Router       /{resource} [get]
func (h *ResourceHandler) FindAll(c echo.Context) error {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page, err := h.service.FindAll(c.Request().Context(), req.toQuery())
	if err != nil {
		return h.fail("find_all", err)
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// FindOne handles GET /{resource}/{id}. Absent and removed records yield null.
//
// @Summary      Get an active record
// @Tags         resources
// @Produce      json
// @Param        resource  path      string  true  "Resource name"
// @Param        id        path      string  true  "Record id"
// @Success      200       {object}  recordResponse  "The record, or null"
// @Failure      500       {object}  errorResponse
// @Router       /{resource}/{id} [get]
func (h *ResourceHandler) FindOne(c echo.Context) error {
	rec, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRecordResponse(rec))
}

// Update handles PUT /{resource}/{id}.
//
// @Summary      Partially update a record
// @Description  fieldId is ignored unless the caller is a web master.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource  path      string          true  "Resource name"
// @Param        id        path      string          true  "Record id"
// @Param        body      body      recordResponse  true  "Attributes to change"
// @Success      200       {object}  recordResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /{resource}/{id} [put]
func (h *ResourceHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}

	rec, err := h.service.Update(c.Request().Context(), c.Param("id"), p, payload)
	if err != nil {
		return h.fail("update", err)
	}
	h.mutated("update", 1)
	return c.JSON(http.StatusOK, toRecordResponse(rec))
}

// Remove handles DELETE /{resource}/{id}.
//
// @Summary      Soft-delete a record
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        resource  path      string  true  "Resource name"
// @Param        id        path      string  true  "Record id"
// @Success      200       {object}  recordResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /{resource}/{id} [delete]
func (h *ResourceHandler) Remove(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	rec, err := h.service.Remove(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return h.fail("remove", err)
	}
	h.mutated("remove", 1)
	return c.JSON(http.StatusOK, toRecordResponse(rec))
}

// Restore handles PUT /{resource}/restore.
//
// @Summary      Restore soft-deleted records
// @Description  All or nothing: one missing or foreign id rejects the whole batch.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource  path      string      true  "Resource name"
// @Param        body      body      idsRequest  true  "Record ids"
// @Success      200       {object}  batchResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /{resource}/restore [put]
func (h *ResourceHandler) Restore(c echo.Context) error {
	return h.batch(c, "restore", h.service.Restore)
}

// HardRemove handles DELETE /{resource}/hard-remove.
//
// @Summary      Permanently delete records
// @Description  All or nothing: one missing or foreign id rejects the whole batch.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource  path      string      true  "Resource name"
// @Param        body      body      idsRequest  true  "Record ids"
// @Success      200       {object}  batchResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /{resource}/hard-remove [delete]
func (h *ResourceHandler) HardRemove(c echo.Context) error {
	return h.batch(c, "hard_remove", h.service.HardRemove)
}

type batchFunc func(ctx context.Context, ids []string, p domain.Principal) (int64, error)

func (h *ResourceHandler) batch(c echo.Context, op string, run batchFunc) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req idsRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	n, err := run(c.Request().Context(), req.IDs, p)
	if err != nil {
		return h.fail(op, err)
	}
	h.mutated(op, n)
	return c.JSON(http.StatusOK, batchResponse{Count: n})
}

// bindPayload decodes a JSON object body and lifts fieldId out of it.
func bindPayload(c echo.Context) (domain.Payload, error) {
	body := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return domain.Payload{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	payload := domain.Payload{Attributes: body}
	if raw, ok := body["fieldId"]; ok {
		delete(body, "fieldId")
		if raw != nil {
			fieldID, ok := raw.(string)
			if !ok {
				return domain.Payload{}, echo.NewHTTPError(http.StatusBadRequest, "fieldId must be a string")
			}
			payload.FieldID = &fieldID
		}
	}
	return payload, nil
}

func (h *ResourceHandler) mutated(op string, n int64) {
	if n > 0 {
		metrics.RecordsMutatedTotal.WithLabelValues(h.resource, op).Add(float64(n))
	}
}

// fail counts engine rejections and passes err on to the HTTP error handler.
func (h *ResourceHandler) fail(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		metrics.OperationsRejectedTotal.WithLabelValues(h.resource, op, reason(de)).Inc()
	}
	return err
}

func reason(err *domain.Error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "validation"
	}
}
