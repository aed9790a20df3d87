package institute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emnnit/console/internal/attendance"
	"emnnit/console/internal/schedule"
)

// API is the remote schedule/attendance service surface the console
// consumes. The concrete Client talks REST; tests substitute a fake.
type API interface {
	ClassSchedule(ctx context.Context, group, semester string) ([]schedule.Entry, error)
	UploadWeeklySchedule(ctx context.Context, req UploadRequest) error
	ProfessorSchedule(ctx context.Context, professorID string) ([]schedule.ProfessorEntry, error)
	BulkUpdateProfessorSchedule(ctx context.Context, professorID string, rows []schedule.ProfessorEntry) error
	Attendance(ctx context.Context, group, semester string) ([]attendance.Record, error)
}

// UploadRequest is one weekly schedule submission. File is optional; when
// set it is forwarded as a multipart attachment under its original name.
type UploadRequest struct {
	Group    string
	Semester string
	Schedule []schedule.UploadRow
	FileName string
	File     io.Reader
}

// StatusError reports a non-2xx response from the institute service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("institute service returned status %d", e.Code)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ClassSchedule(ctx context.Context, group, semester string) ([]schedule.Entry, error) {
	var entries []schedule.Entry
	path := fmt.Sprintf("/api/classSchedule/%s/%s", url.PathEscape(group), url.PathEscape(semester))
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) UploadWeeklySchedule(ctx context.Context, req UploadRequest) error {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("group", req.Group); err != nil {
		return err
	}
	if err := form.WriteField("semester", req.Semester); err != nil {
		return err
	}
	payload, err := json.Marshal(req.Schedule)
	if err != nil {
		return err
	}
	if err := form.WriteField("weeklySchedule", string(payload)); err != nil {
		return err
	}
	if req.File != nil {
		part, err := form.CreateFormFile("file", req.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, req.File); err != nil {
			return err
		}
	}
	if err := form.Close(); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-weekly-schedule", body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(httpReq, nil)
}

func (c *Client) ProfessorSchedule(ctx context.Context, professorID string) ([]schedule.ProfessorEntry, error) {
	var entries []schedule.ProfessorEntry
	path := "/api/professorSchedule/" + url.PathEscape(professorID)
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) BulkUpdateProfessorSchedule(ctx context.Context, professorID string, rows []schedule.ProfessorEntry) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/professorSchedule/%s/bulk", url.PathEscape(professorID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) Attendance(ctx context.Context, group, semester string) ([]attendance.Record, error) {
	var records []attendance.Record
	path := fmt.Sprintf("/api/attendance/%s/%s", url.PathEscape(group), url.PathEscape(semester))
	if err := c.getJSON(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
