package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/todo-server/internal/domain"
	"github.com/Tomlord1122/todo-server/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTodoRequest holds the data for a full update. Description
// distinguishes an omitted field (left alone) from an explicit null
// (cleared).
type UpdateTodoRequest struct {
	Title       string         `json:"title"`
	Description OptionalString `json:"description"`
}

// UpdateStatusRequest toggles completion. A pointer lets us reject a body
// that omits the field instead of silently writing false.
type UpdateStatusRequest struct {
	Completed *bool `json:"completed"`
}

// OptionalString records whether a JSON field was present at all.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// TodoResponse is the wire representation of a Todo.
type TodoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TodoService defines the owner-scoped operations on todos. Every method
// takes the caller identity explicitly and fails with
// domain.ErrUnauthenticated before touching the store when it is empty.
type TodoService interface {
	// ListTodos returns the caller's todos, most recent first.
	ListTodos(ctx context.Context, caller domain.Identity) ([]TodoResponse, error)

	// CreateTodo validates and inserts a new todo owned by the caller.
	CreateTodo(ctx context.Context, caller domain.Identity, req CreateTodoRequest) (*TodoResponse, error)

	GetTodo(ctx context.Context, caller domain.Identity, id string) (*TodoResponse, error)

	// UpdateTodo replaces title and description; completion is untouched.
	UpdateTodo(ctx context.Context, caller domain.Identity, id string, req UpdateTodoRequest) (*TodoResponse, error)

	// UpdateTodoStatus replaces only the completed flag.
	UpdateTodoStatus(ctx context.Context, caller domain.Identity, id string, req UpdateStatusRequest) (*TodoResponse, error)

	DeleteTodo(ctx context.Context, caller domain.Identity, id string) error
}

type todoService struct {
	repo  repository.TodoRepository
	now   func() time.Time
	newID func() string
}

// NewTodoService creates a TodoService on top of repo.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{
		repo:  repo,
		now:   utcNow,
		newID: uuid.NewString,
	}
}

func (s *todoService) ListTodos(ctx context.Context, caller domain.Identity) ([]TodoResponse, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	todos, err := s.repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, toResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) CreateTodo(ctx context.Context, caller domain.Identity, req CreateTodoRequest) (*TodoResponse, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if isBlank(req.Title) {
		return nil, domain.Required("Title")
	}

	todo := &domain.Todo{
		ID:          s.newID(),
		Title:       req.Title,
		Description: normalizeDescription(req.Description),
		Completed:   false,
		CreatedAt:   s.now(),
		UserID:      caller.UserID,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}

	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) GetTodo(ctx context.Context, caller domain.Identity, id string) (*TodoResponse, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	todo, err := s.repo.FindByOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, caller domain.Identity, id string, req UpdateTodoRequest) (*TodoResponse, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if isBlank(req.Title) {
		return nil, domain.Required("Title")
	}

	details := domain.TodoDetails{Title: req.Title}
	if req.Description.Set {
		details.Description = normalizeDescription(req.Description.Value)
		details.ClearDescription = details.Description == nil
	}

	todo, err := s.repo.UpdateDetails(ctx, id, caller.UserID, details)
	if err != nil {
		return nil, err
	}
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) UpdateTodoStatus(ctx context.Context, caller domain.Identity, id string, req UpdateStatusRequest) (*TodoResponse, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if req.Completed == nil {
		return nil, domain.Required("Completed")
	}

	todo, err := s.repo.UpdateStatus(ctx, id, caller.UserID, *req.Completed)
	if err != nil {
		return nil, err
	}
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, caller domain.Identity, id string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return s.repo.Delete(ctx, id, caller.UserID)
}

// utcNow matches the microsecond precision of a Postgres timestamptz, so a
// created record reads back with the same createdAt.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func toResponse(t *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// normalizeDescription stores an empty description as NULL.
func normalizeDescription(d *string) *string {
	if d == nil || *d == "" {
		return nil
	}
	v := *d
	return &v
}
