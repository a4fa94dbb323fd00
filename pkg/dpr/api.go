package dpr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"p9e.in/sitedpr/models"
)

// Client talks to the DPR backend. All calls are synchronous; there is
// no retry or caching layer here.
type Client struct {
	BaseURL string
	Token   string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Kind: "resource", ID: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RequestError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RequestError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// GetDPR fetches one report with its full image payloads.
func (c *Client) GetDPR(ctx context.Context, id string) (*models.DPR, error) {
	var dpr models.DPR
	if err := c.do(ctx, http.MethodGet, "/api/v1/dpr/"+id, nil, &dpr); err != nil {
		if nf, ok := err.(*NotFoundError); ok {
			nf.Kind, nf.ID = "DPR", id
		}
		return nil, err
	}
	return &dpr, nil
}

// dprUpdate is the PUT body used for both notes edits and status
// transitions.
type dprUpdate struct {
	ProgressNotes *string `json:"progress_notes,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// UpdateDPRNotes persists the progress notes and returns the updated
// report.
func (c *Client) UpdateDPRNotes(ctx context.Context, id, notes string) (*models.DPR, error) {
	var dpr models.DPR
	if err := c.do(ctx, http.MethodPut, "/api/v1/dpr/"+id, dprUpdate{ProgressNotes: &notes}, &dpr); err != nil {
		return nil, err
	}
	return &dpr, nil
}

// UpdateDPRStatus drives a status transition through the generic update
// endpoint (approve and reject travel this way).
func (c *Client) UpdateDPRStatus(ctx context.Context, id string, status models.DPRStatus) (*models.DPR, error) {
	s := string(status)
	var dpr models.DPR
	if err := c.do(ctx, http.MethodPut, "/api/v1/dpr/"+id, dprUpdate{Status: &s}, &dpr); err != nil {
		return nil, err
	}
	return &dpr, nil
}

// SubmitDPR moves a draft to submitted. The server re-checks the image
// minimum; callers should have enforced it already.
func (c *Client) SubmitDPR(ctx context.Context, id string) (*models.DPR, error) {
	var dpr models.DPR
	if err := c.do(ctx, http.MethodPost, "/api/v1/dpr/"+id+"/submit", struct{}{}, &dpr); err != nil {
		return nil, err
	}
	return &dpr, nil
}

// AddImage attaches a photo to the report.
func (c *Client) AddImage(ctx context.Context, id, imageData, caption string) error {
	body := map[string]string{"image_data": imageData, "caption": caption}
	return c.do(ctx, http.MethodPost, "/api/v1/dpr/"+id+"/images", body, nil)
}

// UpdateImageCaption rewrites one image's caption and returns the full
// updated report.
func (c *Client) UpdateImageCaption(ctx context.Context, id, imageID, caption string) (*models.DPR, error) {
	body := map[string]string{"caption": caption}
	var dpr models.DPR
	path := "/api/v1/dpr/" + id + "/images/" + imageID + "/caption"
	if err := c.do(ctx, http.MethodPut, path, body, &dpr); err != nil {
		return nil, err
	}
	return &dpr, nil
}

// ListWorkerLogs fetches every log for a project+date. The response may
// be a bare array or a {"logs": [...]} envelope; both parse.
func (c *Client) ListWorkerLogs(ctx context.Context, projectID, date string) ([]models.WorkerLog, error) {
	path := "/api/v1/worker-logs?" + url.Values{
		"project_id": {projectID},
		"date":       {date},
	}.Encode()

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var logs []models.WorkerLog
	if err := json.Unmarshal(raw, &logs); err == nil {
		return logs, nil
	}
	var envelope struct {
		Logs []models.WorkerLog `json:"logs"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &RequestError{Op: "GET " + path, Err: fmt.Errorf("decode worker logs: %w", err)}
	}
	return envelope.Logs, nil
}

// SaveWorkerLog replaces one log's entry rows. The server recomputes
// total_workers; the returned log carries the authoritative value.
func (c *Client) SaveWorkerLog(ctx context.Context, logID string, entries []models.WorkerLogEntry) (*models.WorkerLog, error) {
	body := map[string]interface{}{"entries": entries}
	var log models.WorkerLog
	if err := c.do(ctx, http.MethodPut, "/api/v1/worker-logs/"+logID, body, &log); err != nil {
		if nf, ok := err.(*NotFoundError); ok {
			nf.Kind, nf.ID = "worker log", logID
		}
		return nil, err
	}
	return &log, nil
}

// VersionMeta is one row of a report's version history.
type VersionMeta struct {
	SnapshotID  string `json:"snapshot_id"`
	Version     int    `json:"version"`
	Checksum    string `json:"data_checksum"`
	IsLatest    bool   `json:"is_latest"`
	GeneratedAt string `json:"generated_at"`
}

// ListVersions returns the available snapshot versions, newest first.
func (c *Client) ListVersions(ctx context.Context, dprID string) ([]VersionMeta, error) {
	var resp struct {
		Versions []VersionMeta `json:"versions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/dpr/"+dprID+"/versions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Versions, nil
}

// GetVersion fetches one frozen snapshot including its payload.
func (c *Client) GetVersion(ctx context.Context, dprID string, version int) (*models.VersionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/dpr/%s/versions/data?version=%d", dprID, version)
	var snap models.VersionSnapshot
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
