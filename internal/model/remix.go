package model

import "time"

// RemixStartRequest is the intake payload.
type RemixStartRequest struct {
	SourceReference string `json:"sourceReference" validate:"required,url"`
}

// RemixStartResponse acknowledges an accepted remix job.
type RemixStartResponse struct {
	ProjectID string        `json:"projectId"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// RemixJobPayload is the payload carried on the durable queue.
type RemixJobPayload struct {
	ProjectID       string `json:"projectId"`
	SourceReference string `json:"sourceReference"`
}

// PlaybackError is the body returned when a render's URL cannot be resolved
// yet.
type PlaybackError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Status  string `json:"status"`
}
