package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/store"
	"github.com/videoremix/api/pkg/response"
)

// RemixService is the slice of the remix service the HTTP layer consumes.
type RemixService interface {
	StartRemix(ctx context.Context, req *model.RemixStartRequest) (*model.RemixStartResponse, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]*model.Project, error)
}

type RemixHandler struct {
	service   RemixService
	validator *validator.Validate
}

func NewRemixHandler(svc RemixService, v *validator.Validate) *RemixHandler {
	return &RemixHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/remix
func (h *RemixHandler) Start(c *fiber.Ctx) error {
	var req model.RemixStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartRemix(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// GetProject handles GET /api/projects/:id
func (h *RemixHandler) GetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Project ID is required", nil)
	}

	project, err := h.service.GetProject(c.Context(), id)
	if err != nil {
		if err == store.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, project)
}

// ListProjects handles GET /api/projects
func (h *RemixHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.service.ListProjects(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, projects)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
