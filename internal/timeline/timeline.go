// Package timeline computes clip and audio placement for a render
// submission. Build is a pure function of its inputs.
package timeline

import (
	"github.com/videoremix/api/internal/model"
)

// Asset is one playable source inside a clip.
type Asset struct {
	Type   string  `json:"type"`
	Src    string  `json:"src"`
	Volume float64 `json:"volume"`
}

// Clip places an asset on a track. Start and Length are in seconds.
type Clip struct {
	Asset  Asset  `json:"asset"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Fit    string `json:"fit,omitempty"`
}

type Track struct {
	Clips []Clip `json:"clips"`
}

type Timeline struct {
	Tracks []Track `json:"tracks"`
}

type Output struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps,omitempty"`
	Quality    string `json:"quality,omitempty"`
}

// RenderPayload is the full submission body for the render service.
type RenderPayload struct {
	Timeline Timeline `json:"timeline"`
	Output   Output   `json:"output"`
}

const (
	// minClipSeconds is the floor for per-clip length regardless of clip
	// count or total duration.
	minClipSeconds = 3

	// Without a real narration, each clip contributes 5s up to a 30s cap.
	fallbackPerClipSeconds = 5
	fallbackMaxSeconds     = 30

	// ambientVolume is used when no narration audio will be layered on top.
	ambientVolume = 0.3
)

// Options select the output encoding. Zero values fall back to mp4/hd.
type Options struct {
	Resolution string
	FPS        int
	Quality    string
}

// Build lays out clips sequentially, non-overlapping, and appends a single
// full-volume narration track when a real narration with audio is present.
// Video clips are muted whenever narration audio is layered over them.
func Build(clips []string, narration *model.Narration, opts Options) (*RenderPayload, error) {
	if len(clips) == 0 {
		return nil, &model.ValidationError{Message: "timeline requires at least one footage clip"}
	}

	totalDuration := fallbackMaxSeconds
	if n := len(clips) * fallbackPerClipSeconds; n < totalDuration {
		totalDuration = n
	}
	if narration != nil && !narration.Simulated {
		totalDuration = narration.DurationSeconds
	}

	clipDuration := totalDuration / len(clips)
	if clipDuration < minClipSeconds {
		clipDuration = minClipSeconds
	}

	withAudio := narration != nil && !narration.Simulated && narration.AudioURL != ""

	videoVolume := ambientVolume
	if withAudio {
		videoVolume = 0
	}

	videoClips := make([]Clip, len(clips))
	for i, src := range clips {
		videoClips[i] = Clip{
			Asset:  Asset{Type: "video", Src: src, Volume: videoVolume},
			Start:  i * clipDuration,
			Length: clipDuration,
			Fit:    "cover",
		}
	}

	tracks := []Track{{Clips: videoClips}}

	if withAudio {
		tracks = append(tracks, Track{Clips: []Clip{{
			Asset:  Asset{Type: "audio", Src: narration.AudioURL, Volume: 1.0},
			Start:  0,
			Length: totalDuration,
		}}})
	}

	resolution := opts.Resolution
	if resolution == "" {
		resolution = "hd"
	}

	return &RenderPayload{
		Timeline: Timeline{Tracks: tracks},
		Output: Output{
			Format:     "mp4",
			Resolution: resolution,
			FPS:        opts.FPS,
			Quality:    opts.Quality,
		},
	}, nil
}
