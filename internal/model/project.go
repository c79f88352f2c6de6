package model

import "time"

// Project is the durable record of one remix request. It is created by the
// intake endpoint in Processing state and mutated only by the pipeline
// worker until it reaches a terminal status.
type Project struct {
	ID              string           `json:"id"`
	SourceReference string           `json:"sourceReference"`
	Status          ProjectStatus    `json:"status"`
	Steps           []ProcessingStep `json:"processingSteps"`
	Narration       *Narration       `json:"narration,omitempty"`
	FootageClips    []string         `json:"footageClips,omitempty"`
	RenderID        string           `json:"renderId,omitempty"`
	FinalVideoURL   string           `json:"finalVideoUrl,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ProcessingStep is one entry in a project's append-only stage log.
type ProcessingStep struct {
	Name      string    `json:"step"`
	Outcome   string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"details,omitempty"`
}

// Narration holds the synthesized voice-over for a project. Simulated marks
// placeholder output produced without a configured TTS backend.
type Narration struct {
	OriginalText    string `json:"originalText"`
	TranslatedText  string `json:"translatedText"`
	AudioURL        string `json:"audioUrl"`
	DurationSeconds int    `json:"duration"`
	Simulated       bool   `json:"simulated"`
}

// Terminal reports whether the project may no longer be mutated.
func (p *Project) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}
