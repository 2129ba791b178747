package handler

import (
	"encoding/json"
	"time"

	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/eventlog"
)

// StatusResponse is a status record as returned to clients.
type StatusResponse struct {
	ID                     string              `json:"id"`
	DateOfBirth            string              `json:"date_of_birth"`
	Email                  string              `json:"email,omitempty"`
	FileNumber             string              `json:"file_number,omitempty"`
	ApplicationRegisterSID string              `json:"application_register_sid,omitempty"`
	FirstName              string              `json:"first_name"`
	LastName               string              `json:"last_name"`
	StatusCode             *StatusCodeResponse `json:"status_code,omitempty"`
	StatusDate             string              `json:"status_date,omitempty"`
	CreatedBy              string              `json:"created_by"`
	CreatedAt              time.Time           `json:"created_at"`
	LastModifiedBy         string              `json:"last_modified_by"`
	LastModifiedAt         time.Time           `json:"last_modified_at"`
}

// StatusCodeResponse describes a record's status. Known is false when the
// record's status id is missing from the reference table.
type StatusCodeResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code,omitempty"`
	BusinessCode string `json:"business_code,omitempty"`
	Description  string `json:"description,omitempty"`
	Known        bool   `json:"known"`
}

// PageResponse is one page of GET /api/v1/passport-statuses.
type PageResponse struct {
	Items []StatusResponse `json:"items"`
	Page  PageInfo         `json:"page"`
}

type PageInfo struct {
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
}

// EventResponse is one event log entry.
type EventResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
	RecordIDs  []string        `json:"record_ids"`
	RequestID  string          `json:"request_id,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

type EventsResponse struct {
	Items []EventResponse `json:"items"`
}

// AcceptedResponse acknowledges an asynchronous request.
type AcceptedResponse struct {
	Status string `json:"status"`
}

func (h *Handler) toStatusResponse(r *models.StatusRecord) StatusResponse {
	resp := StatusResponse{
		ID:                     r.ID,
		DateOfBirth:            formatDate(r.DateOfBirth),
		Email:                  r.Email,
		FileNumber:             r.FileNumber,
		ApplicationRegisterSID: r.ApplicationRegisterSID,
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		StatusDate:             formatDate(r.StatusDate),
		CreatedBy:              r.CreatedBy,
		CreatedAt:              r.CreatedAt,
		LastModifiedBy:         r.LastModifiedBy,
		LastModifiedAt:         r.LastModifiedAt,
	}
	if r.StatusCodeID != "" {
		sc := &StatusCodeResponse{ID: r.StatusCodeID}
		if code, ok := h.codes.ByID(r.StatusCodeID); ok {
			sc.Code = code.Code
			sc.BusinessCode = code.BusinessCode
			sc.Description = code.Description
			sc.Known = true
		}
		resp.StatusCode = sc
	}
	return resp
}

func (h *Handler) toPageResponse(p *models.Page) PageResponse {
	items := make([]StatusResponse, 0, len(p.Records))
	for _, r := range p.Records {
		items = append(items, h.toStatusResponse(r))
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = (p.Total + p.Size - 1) / p.Size
	}
	return PageResponse{
		Items: items,
		Page: PageInfo{
			Number:        p.Page,
			Size:          p.Size,
			TotalElements: p.Total,
			TotalPages:    totalPages,
		},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func toEventsResponse(entries []eventlog.Entry) EventsResponse {
	items := make([]EventResponse, 0, len(entries))
	for _, e := range entries {
		recordIDs := e.RecordIDs
		if recordIDs == nil {
			recordIDs = []string{}
		}
		items = append(items, EventResponse{
			ID:         e.ID,
			Kind:       e.Kind,
			OccurredAt: e.OccurredAt,
			RecordIDs:  recordIDs,
			RequestID:  e.RequestID,
			Actor:      e.Actor,
			Detail:     e.Detail,
		})
	}
	return EventsResponse{Items: items}
}
