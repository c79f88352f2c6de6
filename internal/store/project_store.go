package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videoremix/api/internal/model"
)

// ErrProjectNotFound is returned when no record exists for an id.
var ErrProjectNotFound = errors.New("project not found")

const (
	projectKeyPrefix = "project:"
	projectIndexKey  = "projects"

	// Projects are kept for a week; finished renders outlive their
	// time-limited upstream URLs anyway.
	projectTTL = 7 * 24 * time.Hour
)

// ProjectStore is the durable record of remix projects, keyed by project id.
// Each project is a JSON blob under project:<id>; the projects list holds
// ids newest-first for listing.
//
// A project has exactly one writer while in flight (the pipeline worker), so
// read-modify-write without a lock is safe here.
type ProjectStore struct {
	redis *redis.Client
}

func NewProjectStore(redisClient *redis.Client) *ProjectStore {
	return &ProjectStore{redis: redisClient}
}

// Create persists a new project in Processing state and indexes it.
func (s *ProjectStore) Create(ctx context.Context, id, sourceReference string) (*model.Project, error) {
	now := time.Now()
	project := &model.Project{
		ID:              id,
		SourceReference: sourceReference,
		Status:          model.StatusProcessing,
		Steps:           []model.ProcessingStep{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}
	if err := s.redis.LPush(ctx, projectIndexKey, id).Err(); err != nil {
		return nil, &model.PersistenceError{Op: "index", Err: err}
	}
	return project, nil
}

// Get loads one project.
func (s *ProjectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.redis.Get(ctx, projectKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProjectNotFound
		}
		return nil, &model.PersistenceError{Op: "get", Err: err}
	}

	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, &model.PersistenceError{Op: "decode", Err: err}
	}
	return &project, nil
}

// List returns projects newest-first.
func (s *ProjectStore) List(ctx context.Context) ([]*model.Project, error) {
	ids, err := s.redis.LRange(ctx, projectIndexKey, 0, -1).Result()
	if err != nil {
		return nil, &model.PersistenceError{Op: "list", Err: err}
	}

	projects := make([]*model.Project, 0, len(ids))
	for _, id := range ids {
		project, err := s.Get(ctx, id)
		if err != nil {
			if err == ErrProjectNotFound {
				continue // expired blob, stale index entry
			}
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// AppendStep adds one entry to the project's stage log. The log is
// append-only; entries are never reordered or pruned.
func (s *ProjectStore) AppendStep(ctx context.Context, id string, step model.ProcessingStep) error {
	return s.update(ctx, id, func(p *model.Project) error {
		if step.Timestamp.IsZero() {
			step.Timestamp = time.Now()
		}
		p.Steps = append(p.Steps, step)
		return nil
	})
}

// SetNarration records the synthesis stage result.
func (s *ProjectStore) SetNarration(ctx context.Context, id string, narration *model.Narration) error {
	return s.update(ctx, id, func(p *model.Project) error {
		p.Narration = narration
		return nil
	})
}

// SetClips records the footage resolution stage result.
func (s *ProjectStore) SetClips(ctx context.Context, id string, clips []string) error {
	return s.update(ctx, id, func(p *model.Project) error {
		p.FootageClips = clips
		return nil
	})
}

// SetRenderID records the external render handle once submission succeeds.
func (s *ProjectStore) SetRenderID(ctx context.Context, id, renderID string) error {
	return s.update(ctx, id, func(p *model.Project) error {
		p.RenderID = renderID
		return nil
	})
}

// Complete moves the project to its terminal success state. Refuses to
// overwrite a terminal status: Completed and Failed never transition away.
func (s *ProjectStore) Complete(ctx context.Context, id, finalVideoURL string) error {
	return s.update(ctx, id, func(p *model.Project) error {
		if p.Terminal() {
			return fmt.Errorf("project %s already %s", id, p.Status)
		}
		p.Status = model.StatusCompleted
		p.FinalVideoURL = finalVideoURL
		return nil
	})
}

// Fail moves the project to its terminal failure state and logs the reason.
func (s *ProjectStore) Fail(ctx context.Context, id, detail string) error {
	return s.update(ctx, id, func(p *model.Project) error {
		if p.Terminal() {
			return fmt.Errorf("project %s already %s", id, p.Status)
		}
		p.Status = model.StatusFailed
		p.Steps = append(p.Steps, model.ProcessingStep{
			Name:      model.StepError,
			Outcome:   model.OutcomeFailed,
			Timestamp: time.Now(),
			Detail:    detail,
		})
		return nil
	})
}

func (s *ProjectStore) update(ctx context.Context, id string, mutate func(*model.Project) error) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := mutate(project); err != nil {
		return err
	}
	project.UpdatedAt = time.Now()
	return s.save(ctx, project)
}

func (s *ProjectStore) save(ctx context.Context, project *model.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return &model.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.redis.Set(ctx, projectKeyPrefix+project.ID, data, projectTTL).Err(); err != nil {
		return &model.PersistenceError{Op: "set", Err: err}
	}
	return nil
}
