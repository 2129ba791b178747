// Package handler exposes the status-record service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passport-status/internal/passportstatus/models"
	"passport-status/internal/passportstatus/statuscode"
	"passport-status/pkg/platform/eventlog"
	"passport-status/pkg/platform/httputil"
	"passport-status/pkg/requestcontext"

	dErrors "passport-status/pkg/domain-errors"
)

// Service defines the status-record operations the handler calls.
type Service interface {
	Create(ctx context.Context, record *models.StatusRecord) (*models.StatusRecord, error)
	Read(ctx context.Context, id string) (*models.StatusRecord, error)
	Update(ctx context.Context, patch models.StatusRecordPatch) (*models.StatusRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req models.PageRequest) (*models.Page, error)
	Search(ctx context.Context, query models.SearchQuery) (models.MatchOutcome, error)
}

// FileNumberRequester accepts electronic service requests.
type FileNumberRequester interface {
	RequestFileNumber(ctx context.Context, query models.EmailQuery) error
}

// StatusCodes is the reference table used to translate status codes.
type StatusCodes interface {
	ByID(id string) (models.StatusCode, bool)
	ResolveBusinessCode(businessCode string) (models.StatusCode, bool)
	All() []models.StatusCode
}

// EventHistory reads back the audit log written by the event log consumer.
type EventHistory interface {
	ListByRecord(ctx context.Context, recordID string) ([]eventlog.Entry, error)
	ListRecent(ctx context.Context, limit int) ([]eventlog.Entry, error)
}

// Handler serves /api/v1/passport-statuses, /api/v1/esrf-requests and the
// event log.
type Handler struct {
	service Service
	esrf    FileNumberRequester
	codes   StatusCodes
	history EventHistory
	logger  *slog.Logger
}

func New(service Service, esrf FileNumberRequester, codes StatusCodes, history EventHistory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		esrf:    esrf,
		codes:   codes,
		history: history,
		logger:  logger,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/passport-statuses", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/_search", h.HandleSearch)
		r.Get("/{id}", h.HandleRead)
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Get("/{id}/events", h.HandleRecordEvents)
	})
	r.Get("/api/v1/status-events", h.HandleRecentEvents)
	r.Post("/api/v1/esrf-requests", h.HandleFileNumberRequest)
	r.Get("/api/v1/status-codes", h.HandleStatusCodes)
}

// HandleCreate handles POST /api/v1/passport-statuses.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	statusCodeID := req.StatusCodeID
	if req.StatusCode != "" {
		statusCodeID = h.resolveBusinessCode(ctx, req.StatusCode)
	}

	created, err := h.service.Create(ctx, req.ToRecord(statusCodeID))
	if err != nil {
		h.fail(ctx, w, "failed to create status record", err)
		return
	}

	h.logger.InfoContext(ctx, "status record created",
		"request_id", requestID,
		"record_id", created.ID,
	)
	w.Header().Set("Location", "/api/v1/passport-statuses/"+created.ID)
	httputil.WriteJSON(w, http.StatusCreated, h.toStatusResponse(created))
}

// HandleList handles GET /api/v1/passport-statuses?page=&size=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageReq, err := parsePageRequest(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, pageReq)
	if err != nil {
		h.fail(ctx, w, "failed to list status records", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toPageResponse(page))
}

// HandleSearch handles GET /api/v1/passport-statuses/_search. A miss is 404 and
// more than one match is 422.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := h.service.Search(ctx, query)
	if err != nil {
		h.fail(ctx, w, "status search failed", err)
		return
	}

	switch outcome.Result {
	case models.MatchHit:
		httputil.WriteJSON(w, http.StatusOK, h.toStatusResponse(outcome.Record()))
	case models.MatchNonUnique:
		httputil.WriteError(w, dErrors.New(dErrors.CodeNonUniqueMatch, "search query returned non-unique results"))
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no passport status matches the search"))
	}
}

// HandleRead handles GET /api/v1/passport-statuses/{id}.
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Read(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to read status record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toStatusResponse(record))
}

// HandleUpdate handles PATCH /api/v1/passport-statuses/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[PatchStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	statusCodeID := req.StatusCodeID
	if req.StatusCode != nil {
		resolved := h.resolveBusinessCode(ctx, *req.StatusCode)
		statusCodeID = &resolved
	}

	updated, err := h.service.Update(ctx, req.ToPatch(id, statusCodeID))
	if err != nil {
		h.fail(ctx, w, "failed to update status record", err)
		return
	}

	h.logger.InfoContext(ctx, "status record updated",
		"request_id", requestID,
		"record_id", updated.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, h.toStatusResponse(updated))
}

// HandleDelete handles DELETE /api/v1/passport-statuses/{id}. Deleting an
// unknown id also succeeds.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(ctx, w, "failed to delete status record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecordEvents handles GET /api/v1/passport-statuses/{id}/events. The
// history outlives the record, so a deleted record still lists its events.
func (h *Handler) HandleRecordEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.history.ListByRecord(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to list record events", dErrors.Wrap(err, dErrors.CodeInternal, "failed to list record events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(entries))
}

// HandleRecentEvents handles GET /api/v1/status-events?limit=, newest first.
func (h *Handler) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := parseEventLimit(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "failed to list recent events", dErrors.Wrap(err, dErrors.CodeInternal, "failed to list recent events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(entries))
}

// HandleFileNumberRequest handles POST /api/v1/esrf-requests. The response is
// the same whether or not a record matched.
func (h *Handler) HandleFileNumberRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FileNumberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.esrf.RequestFileNumber(ctx, req.ToQuery()); err != nil {
		h.fail(ctx, w, "file number request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// HandleStatusCodes handles GET /api/v1/status-codes.
func (h *Handler) HandleStatusCodes(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.codes.All())
}

// resolveBusinessCode maps an upstream code to a status id. Unknown codes
// become UNKNOWN rather than failing the write.
func (h *Handler) resolveBusinessCode(ctx context.Context, businessCode string) string {
	code, ok := h.codes.ResolveBusinessCode(businessCode)
	if !ok {
		h.logger.WarnContext(ctx, "unknown upstream status code, recording as "+statuscode.Unknown,
			"request_id", requestcontext.RequestID(ctx),
			"business_code", businessCode,
		)
	}
	return code.ID
}

// fail writes err, logging server-side failures at error level and client
// mistakes at debug.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.DebugContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
