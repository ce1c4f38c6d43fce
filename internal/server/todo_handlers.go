package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-server/internal/domain"
	"github.com/Tomlord1122/todo-server/internal/service"
)

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	todos, err := s.todoService.ListTodos(r.Context(), caller)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to fetch todos", logrus.Fields{"user_id": caller.UserID})
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	var req service.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), caller, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to create todo", logrus.Fields{"user_id": caller.UserID})
		return
	}
	respondWithJSON(w, http.StatusCreated, todo)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id := chi.URLParam(r, "id")

	todo, err := s.todoService.GetTodo(r.Context(), caller, id)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to fetch todo", todoFields(caller, id))
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id := chi.URLParam(r, "id")

	var req service.UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), caller, id, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to update todo", todoFields(caller, id))
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoStatusHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id := chi.URLParam(r, "id")

	var req service.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.UpdateTodoStatus(r.Context(), caller, id, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to update todo status", todoFields(caller, id))
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id := chi.URLParam(r, "id")

	if err := s.todoService.DeleteTodo(r.Context(), caller, id); err != nil {
		s.respondWithServiceError(w, r, err, "Failed to delete todo", todoFields(caller, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func todoFields(caller domain.Identity, id string) logrus.Fields {
	return logrus.Fields{"user_id": caller.UserID, "todo_id": id}
}
