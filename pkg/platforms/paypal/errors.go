package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingCaptureID is returned by RefundTransaction before any network call.
	ErrMissingCaptureID = errors.New("paypal: capture id is required")
	// ErrMissingAccessToken is returned when the token endpoint answers without a token.
	ErrMissingAccessToken = errors.New("paypal: token response has no access_token")
	// ErrMissingOrderID is returned when order creation answers without an id.
	ErrMissingOrderID = errors.New("paypal: order response has no id")
)

// HTTPError describes a non-2xx answer from the PayPal REST API.
type HTTPError struct {
	StatusCode  int    `json:"statusCode"`
	Status      string `json:"status"`
	URL         string `json:"url"`
	DebugID     string `json:"debugId,omitempty"`
	Name        string `json:"name,omitempty"`
	Message     string `json:"message,omitempty"`
	BodyPreview string `json:"bodyPreview,omitempty"`
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "paypal: http error"
	}
	if e.Name != "" {
		return fmt.Sprintf("paypal: %s (%s): %s", e.Status, e.URL, e.Name)
	}
	return fmt.Sprintf("paypal: request failed: %s (%s)", e.Status, e.URL)
}

func newHTTPError(statusCode int, status, url, debugID string, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode:  statusCode,
		Status:      status,
		URL:         url,
		DebugID:     debugID,
		BodyPreview: preview(body, 512),
	}
	var payload struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Name = payload.Name
		if e.Name == "" {
			e.Name = payload.Error
		}
		e.Message = payload.Message
	}
	return e
}

func preview(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
