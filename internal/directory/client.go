package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Record is the raw directory response for a student lookup.
type Record struct {
	EmailAddress string `json:"email_address"`
	PartnerID    string `json:"partner_id"`
	Department   string `json:"department"`
}

// Client calls the student directory service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client with the given lookup timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the directory record for a raw scanned id.
// 404 maps to ErrNotFound; any other failure is a TransientError.
func (c *Client) Lookup(ctx context.Context, rawID string) (Record, error) {
	endpoint := c.BaseURL + "/api/student?id=" + url.QueryEscape(rawID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Record{}, &TransientError{Detail: "build request", Err: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Record{}, &TransientError{Detail: "transport", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Record{}, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Record{}, &TransientError{Detail: fmt.Sprintf("status %s", resp.Status)}
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, &TransientError{Detail: "decode response", Err: err}
	}
	return rec, nil
}

// Photo fetches the photo URL for a resolved directory id. The body is
// returned as-is; callers treat any error as "no photo".
func (c *Client) Photo(ctx context.Context, partnerID string) (string, error) {
	endpoint := c.BaseURL + "/api/getStudentPhoto?id=" + url.QueryEscape(partnerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("photo lookup status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
