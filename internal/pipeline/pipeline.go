// Package pipeline drives one remix job from source reference to final
// video URL: narration synthesis, footage resolution, timeline construction,
// remote rendering. Progress is checkpointed to the project store after
// every stage, and the first failing stage aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/videoremix/api/internal/client"
	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/timeline"
)

// Store is the slice of the project state store the pipeline mutates.
type Store interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	AppendStep(ctx context.Context, id string, step model.ProcessingStep) error
	SetNarration(ctx context.Context, id string, narration *model.Narration) error
	SetClips(ctx context.Context, id string, clips []string) error
	SetRenderID(ctx context.Context, id, renderID string) error
	Complete(ctx context.Context, id, finalVideoURL string) error
	Fail(ctx context.Context, id, detail string) error
}

// minUsableClips is the threshold below which resolver output is replaced
// with the fallback footage set.
const minUsableClips = 3

// fallbackClips is the fixed footage set substituted when the resolver
// cannot supply enough usable URLs. Substitution is a deliberate policy of
// the orchestrator, not a resolver default.
var fallbackClips = []string{
	"https://videos.pexels.com/video-files/33757025/14331241_3840_2160_30fps.mp4",
	"https://videos.pexels.com/video-files/33773296/14336624_3840_2160_60fps.mp4",
	"https://videos.pexels.com/video-files/33765739/14334128_3840_2160_24fps.mp4",
}

// Options carries the optional collaborators and output settings.
type Options struct {
	// Storage, when set together with ArchiveRenders, makes the finalize
	// stage keep a durable copy of the final render. The external render
	// URL is time-limited; archiving is best effort and never fails the
	// pipeline.
	Storage        client.StorageClient
	ArchiveRenders bool
	Output         timeline.Options
}

// Pipeline is the remix orchestrator. One Process call handles exactly one
// job; the queue layer enforces the one-in-flight discipline.
type Pipeline struct {
	store          Store
	synthesizer    client.Synthesizer
	footage        client.FootageResolver
	renderer       client.Renderer
	storage        client.StorageClient
	archiveRenders bool
	output         timeline.Options
	httpClient     *http.Client
}

func New(store Store, synthesizer client.Synthesizer, footage client.FootageResolver, renderer client.Renderer, opts Options) *Pipeline {
	return &Pipeline{
		store:          store,
		synthesizer:    synthesizer,
		footage:        footage,
		renderer:       renderer,
		storage:        opts.Storage,
		archiveRenders: opts.ArchiveRenders,
		output:         opts.Output,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Process runs the stage sequence for one job and returns the final video
// URL. Stage failures mark the project Failed and propagate; whether the job
// is redelivered is the queue layer's decision, and a redelivered job whose
// project already reached a terminal status is skipped rather than re-run.
func (p *Pipeline) Process(ctx context.Context, projectID, sourceReference string) (string, error) {
	if projectID == "" || sourceReference == "" {
		return "", &model.ValidationError{Message: "projectId and sourceReference are required"}
	}

	project, err := p.store.Get(ctx, projectID)
	if err != nil {
		// Without the record there is nothing to checkpoint against.
		return "", fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	if project.Terminal() {
		log.Printf("[Pipeline] Project %s already %s, skipping redelivered job", projectID, project.Status)
		return project.FinalVideoURL, nil
	}

	log.Printf("[Pipeline] Starting project %s (%s)", projectID, sourceReference)
	p.checkpoint(ctx, projectID, model.StageInitialize, "Project loaded and validated")

	// Stage: narration synthesis
	narration, err := p.synthesizer.Synthesize(ctx, sourceReference)
	if err != nil {
		return "", p.fail(ctx, projectID, err)
	}
	p.persist(ctx, projectID, "narration", func() error {
		return p.store.SetNarration(ctx, projectID, narration)
	})
	p.checkpoint(ctx, projectID, model.StageSynthesize,
		fmt.Sprintf("Narration synthesized: %ds (simulated=%t)", narration.DurationSeconds, narration.Simulated))

	// Stage: footage resolution
	keywords := deriveKeywords(narration.TranslatedText)
	clips, err := p.footage.Resolve(ctx, keywords)
	if err != nil {
		return "", p.fail(ctx, projectID, err)
	}

	detail := fmt.Sprintf("%d clips resolved for %q", len(clips), keywords)
	if len(clips) < minUsableClips {
		clips = append([]string(nil), fallbackClips...)
		detail = fmt.Sprintf("resolver returned too few usable clips, substituted %d fallback clips", len(clips))
		log.Printf("[Pipeline] Project %s: %s", projectID, detail)
	}
	p.persist(ctx, projectID, "clips", func() error {
		return p.store.SetClips(ctx, projectID, clips)
	})
	p.checkpoint(ctx, projectID, model.StageResolve, detail)

	// Stage: timeline construction
	payload, err := timeline.Build(clips, narration, p.output)
	if err != nil {
		return "", p.fail(ctx, projectID, err)
	}
	p.checkpoint(ctx, projectID, model.StageBuildTimeline,
		fmt.Sprintf("Timeline built: %d tracks, %d clips", len(payload.Timeline.Tracks), len(clips)))

	// Stage: render and wait
	renderID, err := p.renderer.Submit(ctx, payload)
	if err != nil {
		return "", p.fail(ctx, projectID, err)
	}
	p.persist(ctx, projectID, "renderId", func() error {
		return p.store.SetRenderID(ctx, projectID, renderID)
	})

	status, err := p.renderer.WaitForTerminal(ctx, renderID)
	if err != nil {
		return "", p.fail(ctx, projectID, err)
	}
	p.checkpoint(ctx, projectID, model.StageRender,
		fmt.Sprintf("Render %s completed", renderID))

	// Stage: finalize
	finalURL := status.URL
	if p.archiveRenders && p.storage != nil {
		if archivedURL, err := p.archiveRender(ctx, renderID, finalURL); err != nil {
			log.Printf("[Pipeline] Project %s: render archive failed, keeping upstream URL: %v", projectID, err)
		} else {
			finalURL = archivedURL
		}
	}

	p.persist(ctx, projectID, "complete", func() error {
		return p.store.Complete(ctx, projectID, finalURL)
	})
	p.checkpoint(ctx, projectID, model.StageFinalize,
		fmt.Sprintf("Final video available for render %s", renderID))

	log.Printf("[Pipeline] Project %s completed: %s", projectID, finalURL)
	return finalURL, nil
}

// archiveRender copies the rendered video into durable storage and returns
// the archived URL.
func (p *Pipeline) archiveRender(ctx context.Context, renderID, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download render: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("render download returned status %d", resp.StatusCode)
	}

	key := fmt.Sprintf("renders/%s.mp4", renderID)
	return p.storage.Upload(ctx, key, resp.Body, "video/mp4")
}

// fail writes the terminal failure state and propagates the stage error.
// The stage log keeps only the failure message, never internals.
func (p *Pipeline) fail(ctx context.Context, projectID string, stageErr error) error {
	if err := p.store.Fail(ctx, projectID, stageErr.Error()); err != nil {
		log.Printf("[Pipeline] Project %s: failed to record failure: %v", projectID, err)
	}
	log.Printf("[Pipeline] Project %s failed: %v", projectID, stageErr)
	return stageErr
}

// checkpoint appends a completed step to the stage log. A lost checkpoint is
// logged but never aborts the run; losing a checkpoint is less harmful than
// losing the render.
func (p *Pipeline) checkpoint(ctx context.Context, projectID, stage, detail string) {
	step := model.ProcessingStep{
		Name:      stage,
		Outcome:   model.OutcomeCompleted,
		Timestamp: time.Now(),
		Detail:    detail,
	}
	if err := p.store.AppendStep(ctx, projectID, step); err != nil {
		log.Printf("[Pipeline] Project %s: checkpoint %s not persisted: %v", projectID, stage, err)
	}
}

// persist runs a partial-result write, tolerating store failures.
func (p *Pipeline) persist(ctx context.Context, projectID, what string, write func() error) {
	if err := write(); err != nil {
		log.Printf("[Pipeline] Project %s: %s not persisted: %v", projectID, what, err)
	}
}
