package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tomlord1122/todo-server/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TodoRepository defines the owner-scoped data operations on todos.
// Every method that takes an id also takes the owner id, and both end up in
// the same WHERE clause; a statement that matches nothing returns
// domain.ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error)
	FindByOwner(ctx context.Context, id, ownerID string) (*domain.Todo, error)
	UpdateDetails(ctx context.Context, id, ownerID string, details domain.TodoDetails) (*domain.Todo, error)
	UpdateStatus(ctx context.Context, id, ownerID string, completed bool) (*domain.Todo, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

const ownerScope = "id = ? AND user_id = ?"

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	// Omit the association so GORM never tries to upsert the owner row.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(todo).Error; err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	result := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&todos)
	if result.Error != nil {
		return nil, fmt.Errorf("list todos for user %s: %w", ownerID, result.Error)
	}
	return todos, nil
}

func (r *gormTodoRepository) FindByOwner(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).Where(ownerScope, id, ownerID).Take(&todo)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find todo %s: %w", id, result.Error)
	}
	return &todo, nil
}

func (r *gormTodoRepository) UpdateDetails(ctx context.Context, id, ownerID string, details domain.TodoDetails) (*domain.Todo, error) {
	updates := map[string]any{"title": details.Title}
	switch {
	case details.Description != nil:
		updates["description"] = *details.Description
	case details.ClearDescription:
		updates["description"] = nil
	}
	return r.updateScoped(ctx, id, ownerID, updates)
}

func (r *gormTodoRepository) UpdateStatus(ctx context.Context, id, ownerID string, completed bool) (*domain.Todo, error) {
	return r.updateScoped(ctx, id, ownerID, map[string]any{"completed": completed})
}

// updateScoped runs a single UPDATE ... WHERE id AND user_id RETURNING *,
// so the ownership check and the write are one statement.
func (r *gormTodoRepository) updateScoped(ctx context.Context, id, ownerID string, updates map[string]any) (*domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).
		Model(&todo).
		Clauses(clause.Returning{}).
		Where(ownerScope, id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &todo, nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).Where(ownerScope, id, ownerID).Delete(&domain.Todo{})
	if result.Error != nil {
		return fmt.Errorf("delete todo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
