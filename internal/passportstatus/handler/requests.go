package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"passport-status/internal/passportstatus/models"

	dErrors "passport-status/pkg/domain-errors"
)

const (
	dateLayout = "2006-01-02"

	defaultEventLimit = 50
	maxEventLimit     = 500
)

// CreateStatusRequest is the body of POST /api/v1/passport-statuses. The
// status may be given by id or by the upstream business code, not both.
type CreateStatusRequest struct {
	DateOfBirth            string `json:"date_of_birth"`
	Email                  string `json:"email"`
	FileNumber             string `json:"file_number"`
	ApplicationRegisterSID string `json:"application_register_sid"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	StatusCodeID           string `json:"status_code_id"`
	StatusCode             string `json:"status_code"`
	StatusDate             string `json:"status_date"`

	parsedDateOfBirth time.Time
	parsedStatusDate  time.Time
}

func (r *CreateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.trim()

	var err error
	if r.DateOfBirth == "" {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
	}
	if r.parsedDateOfBirth, err = parseDate("date_of_birth", r.DateOfBirth); err != nil {
		return err
	}
	if r.StatusDate != "" {
		if r.parsedStatusDate, err = parseDate("status_date", r.StatusDate); err != nil {
			return err
		}
	}
	if r.FirstName == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	if r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "last_name is required")
	}
	if r.StatusCodeID != "" && r.StatusCode != "" {
		return dErrors.New(dErrors.CodeValidation, "status_code_id and status_code are mutually exclusive")
	}
	return nil
}

func (r *CreateStatusRequest) trim() {
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Email = strings.TrimSpace(r.Email)
	r.FileNumber = strings.TrimSpace(r.FileNumber)
	r.ApplicationRegisterSID = strings.TrimSpace(r.ApplicationRegisterSID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.StatusCodeID = strings.TrimSpace(r.StatusCodeID)
	r.StatusCode = strings.TrimSpace(r.StatusCode)
	r.StatusDate = strings.TrimSpace(r.StatusDate)
}

// ToRecord builds the record to create. statusCodeID is the resolved status.
func (r *CreateStatusRequest) ToRecord(statusCodeID string) *models.StatusRecord {
	return &models.StatusRecord{
		DateOfBirth:            r.parsedDateOfBirth,
		Email:                  r.Email,
		FileNumber:             r.FileNumber,
		ApplicationRegisterSID: r.ApplicationRegisterSID,
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		StatusCodeID:           statusCodeID,
		StatusDate:             r.parsedStatusDate,
	}
}

// PatchStatusRequest is the body of PATCH /api/v1/passport-statuses/{id}.
// Absent fields are left unchanged; an empty string clears an optional field.
type PatchStatusRequest struct {
	DateOfBirth            *string `json:"date_of_birth"`
	Email                  *string `json:"email"`
	FileNumber             *string `json:"file_number"`
	ApplicationRegisterSID *string `json:"application_register_sid"`
	FirstName              *string `json:"first_name"`
	LastName               *string `json:"last_name"`
	StatusCodeID           *string `json:"status_code_id"`
	StatusCode             *string `json:"status_code"`
	StatusDate             *string `json:"status_date"`

	parsedDateOfBirth *time.Time
	parsedStatusDate  *time.Time
}

func (r *PatchStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, s := range []*string{r.DateOfBirth, r.Email, r.FileNumber, r.ApplicationRegisterSID,
		r.FirstName, r.LastName, r.StatusCodeID, r.StatusCode, r.StatusDate} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if r.DateOfBirth != nil {
		dob, err := parseDate("date_of_birth", *r.DateOfBirth)
		if err != nil {
			return err
		}
		r.parsedDateOfBirth = &dob
	}
	if r.StatusDate != nil {
		var statusDate time.Time
		if *r.StatusDate != "" {
			d, err := parseDate("status_date", *r.StatusDate)
			if err != nil {
				return err
			}
			statusDate = d
		}
		r.parsedStatusDate = &statusDate
	}
	if r.StatusCodeID != nil && r.StatusCode != nil {
		return dErrors.New(dErrors.CodeValidation, "status_code_id and status_code are mutually exclusive")
	}
	return nil
}

// ToPatch builds the patch for id. statusCodeID is the resolved status, or
// nil when the request leaves it unchanged.
func (r *PatchStatusRequest) ToPatch(id string, statusCodeID *string) models.StatusRecordPatch {
	return models.StatusRecordPatch{
		ID:                     id,
		DateOfBirth:            r.parsedDateOfBirth,
		Email:                  r.Email,
		FileNumber:             r.FileNumber,
		ApplicationRegisterSID: r.ApplicationRegisterSID,
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		StatusCodeID:           statusCodeID,
		StatusDate:             r.parsedStatusDate,
	}
}

// FileNumberRequest is the body of POST /api/v1/esrf-requests.
type FileNumberRequest struct {
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`

	parsedDateOfBirth time.Time
}

func (r *FileNumberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)

	if r.DateOfBirth == "" {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
	}
	dob, err := parseDate("date_of_birth", r.DateOfBirth)
	if err != nil {
		return err
	}
	r.parsedDateOfBirth = dob
	return nil
}

func (r *FileNumberRequest) ToQuery() models.EmailQuery {
	return models.EmailQuery{
		DateOfBirth: r.parsedDateOfBirth,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
	}
}

// parseSearchQuery reads the _search query string. Exactly one of email and
// fileNumber selects the kind of search.
func parseSearchQuery(q url.Values) (models.SearchQuery, error) {
	dobRaw := strings.TrimSpace(q.Get("dateOfBirth"))
	email := strings.TrimSpace(q.Get("email"))
	fileNumber := strings.TrimSpace(q.Get("fileNumber"))
	firstName := strings.TrimSpace(q.Get("firstName"))
	lastName := strings.TrimSpace(q.Get("lastName"))

	if dobRaw == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "dateOfBirth is required")
	}
	dob, err := parseDate("dateOfBirth", dobRaw)
	if err != nil {
		return nil, err
	}

	switch {
	case email != "" && fileNumber != "":
		return nil, dErrors.New(dErrors.CodeValidation, "search by email or fileNumber, not both")
	case email != "":
		return models.EmailQuery{DateOfBirth: dob, Email: email, FirstName: firstName, LastName: lastName}, nil
	case fileNumber != "":
		return models.FileNumberQuery{DateOfBirth: dob, FileNumber: fileNumber, FirstName: firstName, LastName: lastName}, nil
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "email or fileNumber is required")
	}
}

func parsePageRequest(q url.Values) (models.PageRequest, error) {
	var req models.PageRequest
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return req, dErrors.New(dErrors.CodeValidation, "page must be a non-negative integer")
		}
		req.Page = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > models.MaxPageSize {
			return req, dErrors.New(dErrors.CodeValidation, "size must be between 1 and "+strconv.Itoa(models.MaxPageSize))
		}
		req.Size = n
	}
	return req, nil
}

func parseEventLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return defaultEventLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxEventLimit {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and "+strconv.Itoa(maxEventLimit))
	}
	return n, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
