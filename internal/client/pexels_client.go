package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/videoremix/api/internal/config"
	"github.com/videoremix/api/internal/model"
)

// FootageResolver turns search keywords into an ordered list of playable
// video URLs.
type FootageResolver interface {
	Resolve(ctx context.Context, keywords string) ([]string, error)
}

// PexelsClient implements FootageResolver against the Pexels video search
// API.
type PexelsClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	perPage     int
	minDuration int
}

func NewPexelsClient(cfg *config.PexelsConfig) *PexelsClient {
	return &PexelsClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		perPage:     cfg.PerPage,
		minDuration: cfg.MinDuration,
	}
}

type pexelsSearchResponse struct {
	Videos []struct {
		ID         int `json:"id"`
		VideoFiles []struct {
			Link    string `json:"link"`
			Quality string `json:"quality"`
			Width   int    `json:"width"`
			Height  int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Resolve searches stock footage and returns, per result, the
// highest-resolution playable encoding. Results with no hd/sd encoding are
// skipped.
func (c *PexelsClient) Resolve(ctx context.Context, keywords string) ([]string, error) {
	query := url.Values{}
	query.Set("query", keywords)
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("min_duration", strconv.Itoa(c.minDuration))

	endpoint := fmt.Sprintf("%s/videos/search?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.UpstreamError{Service: "pexels", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result pexelsSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var clips []string
	for _, video := range result.Videos {
		best := ""
		bestPixels := 0
		for _, file := range video.VideoFiles {
			if file.Quality != "hd" && file.Quality != "sd" {
				continue
			}
			pixels := file.Width * file.Height
			if best == "" || pixels > bestPixels {
				best = file.Link
				bestPixels = pixels
			}
		}
		if best != "" {
			clips = append(clips, best)
		}
	}

	log.Printf("[Pexels API] %d usable clips for %q", len(clips), keywords)
	return clips, nil
}

// IsConfigured returns true if the client has valid configuration.
func (c *PexelsClient) IsConfigured() bool {
	return c.apiKey != ""
}
