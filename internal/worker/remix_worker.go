package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/pipeline"
)

// RemixWorker adapts queue deliveries to the pipeline orchestrator. The
// orchestrator returns a typed result; redelivery policy belongs to the
// queue layer.
type RemixWorker struct {
	pipeline *pipeline.Pipeline
}

func NewRemixWorker(p *pipeline.Pipeline) *RemixWorker {
	return &RemixWorker{pipeline: p}
}

// ProcessTask handles one remix job delivery.
func (w *RemixWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RemixJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	log.Printf("Starting remix job: project %s", payload.ProjectID)

	finalURL, err := w.pipeline.Process(ctx, payload.ProjectID, payload.SourceReference)
	if err != nil {
		return err
	}

	log.Printf("Remix job completed: project %s → %s", payload.ProjectID, finalURL)
	return nil
}
