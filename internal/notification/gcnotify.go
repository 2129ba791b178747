package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dErrors "passport-status/pkg/domain-errors"
)

// GCNotifyClient sends file-number emails through the GC Notify API.
type GCNotifyClient struct {
	baseURL    string
	apiKey     string
	templateID string
	httpc      *http.Client
}

// NewGCNotifyClient builds a client. A non-positive timeout means 10 seconds.
func NewGCNotifyClient(baseURL, apiKey, templateID string, timeout time.Duration) (*GCNotifyClient, error) {
	switch {
	case strings.TrimSpace(baseURL) == "":
		return nil, errors.New("gc notify base url is required")
	case apiKey == "":
		return nil, errors.New("gc notify api key is required")
	case templateID == "":
		return nil, errors.New("gc notify template id is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GCNotifyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		templateID: templateID,
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

type emailRequest struct {
	EmailAddress    string            `json:"email_address"`
	TemplateID      string            `json:"template_id"`
	Personalisation map[string]string `json:"personalisation"`
	Reference       string            `json:"reference,omitempty"`
}

type notifyError struct {
	StatusCode int `json:"status_code"`
	Errors     []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errors"`
}

// SendFileNumber calls POST /v2/notifications/email.
func (c *GCNotifyClient) SendFileNumber(ctx context.Context, notice FileNumberNotice) error {
	body, err := json.Marshal(emailRequest{
		EmailAddress:    notice.Email,
		TemplateID:      c.templateID,
		Personalisation: map[string]string{"file_number": notice.FileNumber},
		Reference:       notice.RecordID,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode notification request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/notifications/email", bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey-v1 "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeIntegrationFailure, "call gc notify")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeIntegrationFailure, "read gc notify response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dErrors.New(dErrors.CodeIntegrationFailure, describeFailure(resp.StatusCode, raw))
	}
	return nil
}

func describeFailure(status int, raw []byte) string {
	var parsed notifyError
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Errors) > 0 {
		return fmt.Sprintf("gc notify returned %d: %s: %s", status, parsed.Errors[0].Error, parsed.Errors[0].Message)
	}
	return fmt.Sprintf("gc notify returned %d", status)
}
