// Package tasks is the CRUD client for the per-user task endpoints.
package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/shezi1344/taskflow-cli/internal/api"
	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/model"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

// Service issues task operations through the authenticated request layer.
type Service struct {
	client *api.Client
	store  token.Store
	log    *zap.Logger
}

// NewService constructs a Service.
func NewService(client *api.Client, store token.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, store: store, log: log}
}

// CreateInput is the payload for a new task.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateInput carries partial task fields; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (s *Service) userPath(suffix string) (string, error) {
	userID, ok := token.SubjectFrom(s.store)
	if !ok {
		return "", errs.New(errs.KindUnauthenticated,
			"authentication token not found; please sign in again")
	}
	return fmt.Sprintf("/api/%s/tasks%s", userID, suffix), nil
}

// List fetches tasks, optionally filtered by status and ordered by sort.
// A status of "all" or "" means no filter.
func (s *Service) List(ctx context.Context, status, sort string) ([]model.Task, error) {
	path, err := s.userPath("")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if status != "" && !strings.EqualFold(status, "all") {
		q.Set("status", status)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	var out []model.Task
	if err := s.client.DoJSON(ctx, http.MethodGet, path, api.Options{Query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a task and returns the server's record.
func (s *Service) Create(ctx context.Context, in CreateInput) (model.Task, error) {
	path, err := s.userPath("")
	if err != nil {
		return model.Task{}, err
	}
	var out model.Task
	if err := s.client.DoJSON(ctx, http.MethodPost, path, api.Options{Body: in}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// Get fetches a single task.
func (s *Service) Get(ctx context.Context, id int64) (model.Task, error) {
	path, err := s.userPath(fmt.Sprintf("/%d", id))
	if err != nil {
		return model.Task{}, err
	}
	var out model.Task
	if err := s.client.DoJSON(ctx, http.MethodGet, path, api.Options{}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// Update applies partial fields to a task.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (model.Task, error) {
	path, err := s.userPath(fmt.Sprintf("/%d", id))
	if err != nil {
		return model.Task{}, err
	}
	var out model.Task
	if err := s.client.DoJSON(ctx, http.MethodPut, path, api.Options{Body: in}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// Delete removes a task. The backend answers 204.
func (s *Service) Delete(ctx context.Context, id int64) error {
	path, err := s.userPath(fmt.Sprintf("/%d", id))
	if err != nil {
		return err
	}
	return s.client.DoJSON(ctx, http.MethodDelete, path, api.Options{}, nil)
}

// Toggle flips a task's completion state via the dedicated endpoint.
func (s *Service) Toggle(ctx context.Context, id int64, completed bool) (model.Task, error) {
	path, err := s.userPath(fmt.Sprintf("/%d/complete", id))
	if err != nil {
		return model.Task{}, err
	}
	body := map[string]bool{"completed": completed}
	var out model.Task
	if err := s.client.DoJSON(ctx, http.MethodPatch, path, api.Options{Body: body}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}
