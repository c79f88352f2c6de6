package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/videoremix/api/internal/config"
	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/timeline"
)

// Renderer defines the render service operations the pipeline consumes.
type Renderer interface {
	Submit(ctx context.Context, payload *timeline.RenderPayload) (string, error)
	Poll(ctx context.Context, renderID string) (*model.RenderStatus, error)
	WaitForTerminal(ctx context.Context, renderID string) (*model.RenderStatus, error)
}

// ShotstackClient implements Renderer for the Shotstack edit API.
type ShotstackClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxAttempts  int
}

// NewShotstackClient creates a render client. Poll interval and attempt
// budget come from configuration, never from response data.
func NewShotstackClient(cfg *config.ShotstackConfig) *ShotstackClient {
	return &ShotstackClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: time.Duration(cfg.PollInterval) * time.Second,
		maxAttempts:  cfg.MaxPollAttempts,
	}
}

// renderSubmitResponse is the submission acknowledgement envelope.
type renderSubmitResponse struct {
	Response struct {
		ID string `json:"id"`
	} `json:"response"`
}

// renderStatusResponse is the polling envelope.
type renderStatusResponse struct {
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URL    string `json:"url"`
	} `json:"response"`
}

// Submit sends a timeline for rendering and returns the external render
// identifier.
func (c *ShotstackClient) Submit(ctx context.Context, payload *timeline.RenderPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	var result renderSubmitResponse
	if err := c.doRequest(req, &result); err != nil {
		return "", err
	}
	if result.Response.ID == "" {
		return "", &model.UpstreamError{Service: "shotstack", Body: "submission response missing render id"}
	}

	log.Printf("[Shotstack API] Render submitted: %s", result.Response.ID)
	return result.Response.ID, nil
}

// Poll fetches the current render status and maps the external vocabulary to
// the internal state set. Progress and message are observational only.
func (c *ShotstackClient) Poll(ctx context.Context, renderID string) (*model.RenderStatus, error) {
	endpoint := fmt.Sprintf("%s/render/%s", c.baseURL, renderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result renderStatusResponse
	if err := c.doRequest(req, &result); err != nil {
		return nil, err
	}

	state, progress, message := mapRenderStatus(result.Response.Status)
	status := &model.RenderStatus{
		RenderID: renderID,
		State:    state,
		Progress: progress,
		Message:  message,
	}
	if state == model.RenderDone {
		status.URL = result.Response.URL
	}
	return status, nil
}

// WaitForTerminal polls at a fixed interval until the render reaches done or
// failed, up to the configured attempt budget. Transient poll errors count
// toward the budget but do not abort; exhausting the budget yields a
// TimeoutError.
func (c *ShotstackClient) WaitForTerminal(ctx context.Context, renderID string) (*model.RenderStatus, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, err := c.Poll(ctx, renderID)
		if err != nil {
			log.Printf("[Shotstack API] Poll #%d (render=%s) — error: %v", attempt, renderID, err)
		} else {
			log.Printf("[Shotstack API] Poll #%d (render=%s) — status: %s (%d%%)", attempt, renderID, status.State, status.Progress)

			switch status.State {
			case model.RenderDone:
				return status, nil
			case model.RenderFailed:
				return nil, &model.UpstreamError{Service: "shotstack", Body: fmt.Sprintf("render %s failed", renderID)}
			}
		}

		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return nil, &model.TimeoutError{RenderID: renderID, Attempts: c.maxAttempts}
}

// mapRenderStatus translates the service's status vocabulary. Statuses the
// service may add later land in the unknown branch and stay non-terminal
// until the attempt budget runs out.
func mapRenderStatus(external string) (model.RenderState, int, string) {
	switch external {
	case "queued":
		return model.RenderQueued, 10, "Render queued"
	case "fetching":
		return model.RenderFetching, 25, "Fetching source assets"
	case "rendering":
		return model.RenderRendering, 50, "Rendering video"
	case "saving":
		return model.RenderSaving, 80, "Saving output"
	case "done":
		return model.RenderDone, 100, "Render complete"
	case "failed":
		return model.RenderFailed, 0, "Render failed"
	default:
		return model.RenderUnknown, 0, fmt.Sprintf("Unrecognized status %q", external)
	}
}

func (c *ShotstackClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.UpstreamError{Service: "shotstack", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// IsConfigured returns true if the client has valid configuration.
func (c *ShotstackClient) IsConfigured() bool {
	return c.apiKey != ""
}
