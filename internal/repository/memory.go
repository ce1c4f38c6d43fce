package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Tomlord1122/todo-server/internal/domain"
)

// MemoryStore keeps users and todos in process. It backs STORE=memory and the
// HTTP tests. A single lock makes every scoped statement atomic, matching
// the row-level guarantees the Postgres repositories rely on.
type MemoryStore struct {
	mu      sync.RWMutex
	todos   map[string]domain.Todo
	users   map[string]domain.User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos:   make(map[string]domain.Todo),
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// Todos returns the store's TodoRepository view.
func (m *MemoryStore) Todos() TodoRepository { return memoryTodos{m} }

// Users returns the store's UserRepository view.
func (m *MemoryStore) Users() UserRepository { return memoryUsers{m} }

type memoryTodos struct{ m *MemoryStore }

func (r memoryTodos) Create(ctx context.Context, todo *domain.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.todos[todo.ID] = cloneTodo(*todo)
	return nil
}

func (r memoryTodos) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	todos := make([]domain.Todo, 0)
	for _, t := range r.m.todos {
		if t.UserID == ownerID {
			todos = append(todos, cloneTodo(t))
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID > todos[j].ID
		}
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

func (r memoryTodos) FindByOwner(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	t, ok := r.m.todos[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	t = cloneTodo(t)
	return &t, nil
}

func (r memoryTodos) UpdateDetails(ctx context.Context, id, ownerID string, details domain.TodoDetails) (*domain.Todo, error) {
	return r.update(ctx, id, ownerID, func(t *domain.Todo) {
		t.Title = details.Title
		switch {
		case details.Description != nil:
			d := *details.Description
			t.Description = &d
		case details.ClearDescription:
			t.Description = nil
		}
	})
}

func (r memoryTodos) UpdateStatus(ctx context.Context, id, ownerID string, completed bool) (*domain.Todo, error) {
	return r.update(ctx, id, ownerID, func(t *domain.Todo) {
		t.Completed = completed
	})
}

func (r memoryTodos) update(ctx context.Context, id, ownerID string, apply func(*domain.Todo)) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.todos[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	apply(&t)
	r.m.todos[id] = t
	t = cloneTodo(t)
	return &t, nil
}

func (r memoryTodos) Delete(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.todos[id]
	if !ok || t.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.m.todos, id)
	return nil
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.m.byEmail[key]; taken {
		return domain.ErrEmailTaken
	}
	r.m.users[user.ID] = *user
	r.m.byEmail[key] = user.ID
	return nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.m.users[id]
	return &u, nil
}

func cloneTodo(t domain.Todo) domain.Todo {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	t.User = nil
	return t
}
