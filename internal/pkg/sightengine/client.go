// Package sightengine is a client for the Sightengine moderation API.
// It covers the four call shapes the upload pipeline consumes: a
// single-media check, a synchronous video check, an asynchronous
// submit+poll pair, and a per-segment check.
package sightengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Verdict is one moderation judgment: model name -> named scores.
// Score values are numbers in [0,1] or boolean flags, depending on the
// model.
type Verdict map[string]map[string]any

// VideoVerdict is the judgment for a video: zero or more per-frame
// verdicts plus whatever aggregate scores the service reported at the
// top level.
type VideoVerdict struct {
	Frames    []Verdict
	Aggregate Verdict
}

// PollResult is one observation of an asynchronous moderation job.
type PollResult struct {
	Finished      bool
	Failed        bool
	FailureReason string
	Verdict       *VideoVerdict // set when Finished
}

// TransportError reports a non-2xx or non-JSON reply from the service.
// It is distinct from a content violation: the orchestrator skips a
// segment that draws one but fails the upload on anything else.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("moderation service error (status %d): %s", e.Status, e.Body)
}

// Config holds configuration for the Sightengine client.
type Config struct {
	BaseURL   string // e.g. "https://api.sightengine.com"
	APIUser   string
	APISecret string
	Models    string // comma-separated model list sent with every call
	Timeout   time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.sightengine.com",
		Models:  "nudity,wad,offensive",
		Timeout: 60 * time.Second,
	}
}

// Client calls the Sightengine moderation API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Sightengine client.
func NewClient(config Config) *Client {
	if config.Models == "" {
		config.Models = DefaultConfig().Models
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// CheckImage runs the single-media check and returns the aggregate
// verdict.
func (c *Client) CheckImage(ctx context.Context, media []byte) (Verdict, error) {
	raw, err := c.postMedia(ctx, "/1.0/check.json", media, nil)
	if err != nil {
		return nil, err
	}
	return extractVerdict(raw), nil
}

// CheckVideoSync runs the synchronous video check on the whole file.
func (c *Client) CheckVideoSync(ctx context.Context, media []byte) (*VideoVerdict, error) {
	raw, err := c.postMedia(ctx, "/1.0/video/check-sync.json", media, nil)
	if err != nil {
		return nil, err
	}
	return extractVideoVerdict(raw), nil
}

// CheckSegment moderates one independently decodable sub-clip. The
// wire shape is the same family as the synchronous check.
func (c *Client) CheckSegment(ctx context.Context, media []byte) (*VideoVerdict, error) {
	return c.CheckVideoSync(ctx, media)
}

// SubmitVideoAsync submits the whole file to the asynchronous endpoint
// and returns the job identifier to poll.
func (c *Client) SubmitVideoAsync(ctx context.Context, media []byte) (string, error) {
	raw, err := c.postMedia(ctx, "/1.0/video/check.json", media, map[string]string{"async": "1"})
	if err != nil {
		return "", err
	}

	var resp struct {
		Status  string `json:"status"`
		Error   any    `json:"error"`
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &TransportError{Status: http.StatusOK, Body: string(raw)}
	}
	if resp.Status == "failure" {
		return "", fmt.Errorf("async submit rejected: %v", resp.Error)
	}
	if resp.Request.ID == "" {
		return "", fmt.Errorf("async submit response carries no request id")
	}
	return resp.Request.ID, nil
}

// PollVideo fetches the state of an asynchronous moderation job.
func (c *Client) PollVideo(ctx context.Context, requestID string) (*PollResult, error) {
	q := url.Values{}
	q.Set("request_id", requestID)
	q.Set("models", c.config.Models)
	q.Set("api_user", c.config.APIUser)
	q.Set("api_secret", c.config.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+"/1.0/video/check.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status         string `json:"status"`
		Error          any    `json:"error"`
		ProgressStatus string `json:"progress_status"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &TransportError{Status: http.StatusOK, Body: string(raw)}
	}

	if resp.Status == "failure" {
		return &PollResult{Failed: true, FailureReason: fmt.Sprintf("%v", resp.Error)}, nil
	}
	if resp.ProgressStatus != "finished" {
		return &PollResult{}, nil
	}
	return &PollResult{Finished: true, Verdict: extractVideoVerdict(raw)}, nil
}

// Ping checks whether the moderation service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/1.0/check.json", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moderation service not reachable at %s: %w", c.config.BaseURL, err)
	}
	resp.Body.Close()
	return nil
}

// postMedia builds the standard multipart request: the media blob, the
// model list and the credential pair, plus any extra fields.
func (c *Client) postMedia(ctx context.Context, path string, media []byte, extra map[string]string) (json.RawMessage, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("media", "upload")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return nil, fmt.Errorf("failed to write media: %w", err)
	}

	fields := map[string]string{
		"models":     c.config.Models,
		"api_user":   c.config.APIUser,
		"api_secret": c.config.APISecret,
	}
	for k, v := range extra {
		fields[k] = v
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call moderation service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if !json.Valid(respBody) {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
