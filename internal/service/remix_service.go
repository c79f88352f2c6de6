package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/store"
)

const (
	TaskTypeRemix = "remix:process"

	// queueName is the single remix queue; the worker server consumes it
	// with a concurrency of one.
	queueName = "remix"
)

// RemixService creates projects and hands them to the durable queue.
type RemixService struct {
	projects    *store.ProjectStore
	asynqClient *asynq.Client
}

func NewRemixService(projects *store.ProjectStore, asynqClient *asynq.Client) *RemixService {
	return &RemixService{
		projects:    projects,
		asynqClient: asynqClient,
	}
}

// StartRemix persists a new Processing project and enqueues its job. The
// project exists before the job so the worker always finds a record to
// checkpoint against.
func (s *RemixService) StartRemix(ctx context.Context, req *model.RemixStartRequest) (*model.RemixStartResponse, error) {
	projectID := uuid.New().String()

	project, err := s.projects.Create(ctx, projectID, req.SourceReference)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	payload, err := json.Marshal(model.RemixJobPayload{
		ProjectID:       projectID,
		SourceReference: req.SourceReference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	// MaxRetry covers crash redelivery; a job whose project already reached
	// a terminal state is skipped by the pipeline, not re-run.
	_, err = s.asynqClient.Enqueue(asynq.NewTask(TaskTypeRemix, payload),
		asynq.Queue(queueName),
		asynq.MaxRetry(2),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return &model.RemixStartResponse{
		ProjectID: projectID,
		Status:    project.Status,
		CreatedAt: project.CreatedAt,
	}, nil
}

// GetProject returns one project with its stage log.
func (s *RemixService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.Get(ctx, id)
}

// ListProjects returns all projects, newest first.
func (s *RemixService) ListProjects(ctx context.Context) ([]*model.Project, error) {
	return s.projects.List(ctx)
}
