package model

// Project status
type ProjectStatus string

const (
	StatusProcessing ProjectStatus = "Processing"
	StatusCompleted  ProjectStatus = "Completed"
	StatusFailed     ProjectStatus = "Failed"
)

// Pipeline stage names, in execution order. They double as the step names
// written to the stage log.
const (
	StageInitialize    = "initialize"
	StageSynthesize    = "synthesize-narration"
	StageResolve       = "resolve-footage"
	StageBuildTimeline = "build-timeline"
	StageRender        = "render-and-wait"
	StageFinalize      = "finalize"
	StepError          = "error"
)

// Step outcomes
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// RenderState is the internal vocabulary for the external renderer's
// lifecycle. Done and Failed are terminal.
type RenderState string

const (
	RenderQueued    RenderState = "queued"
	RenderFetching  RenderState = "fetching"
	RenderRendering RenderState = "rendering"
	RenderSaving    RenderState = "saving"
	RenderDone      RenderState = "done"
	RenderFailed    RenderState = "failed"
	RenderUnknown   RenderState = "unknown"
)

// Terminal reports whether no further render transition can occur.
func (s RenderState) Terminal() bool {
	return s == RenderDone || s == RenderFailed
}

// RenderStatus is one observation of an external render job. Progress and
// Message exist for observability only; termination decisions use State.
type RenderStatus struct {
	RenderID string      `json:"renderId"`
	State    RenderState `json:"state"`
	Progress int         `json:"progress"`
	Message  string      `json:"message,omitempty"`
	URL      string      `json:"url,omitempty"`
}
