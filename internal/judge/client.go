// Package judge implements the HTTP relay to the external judging service.
// Accepted submissions are forwarded as a JSON job; the judger later reports
// its verdict back through the record update endpoint using its own
// credential.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openjudge/go-judge-backend/internal/domain"
)

// Job is the payload relayed to the judging service for one submission.
// Field names are part of the wire format shared with the judging workers.
type Job struct {
	PID      int64           `json:"pid"`
	RID      int64           `json:"rid"`
	Code     string          `json:"code"`
	Language domain.Language `json:"language"`
	Opt      []string        `json:"opt"`
}

// Client posts judging jobs to a single judger endpoint. A nil or disabled
// client silently drops jobs, which keeps local development working without
// a judger process.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a relay client for the given judger URL. An empty URL
// yields a disabled client.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has a judger endpoint configured.
func (c *Client) Enabled() bool { return c != nil && c.url != "" }

// Submit relays one judging job. It honors ctx for cancellation and treats
// any non-2xx response as a failure.
func (c *Client) Submit(ctx context.Context, job Job) error {
	if !c.Enabled() {
		return nil
	}
	if job.Opt == nil {
		job.Opt = []string{}
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send job: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("judger returned status %d", resp.StatusCode)
	}
	return nil
}
