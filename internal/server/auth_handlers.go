package server

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-server/internal/domain"
	"github.com/Tomlord1122/todo-server/internal/service"
)

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.authService.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.respondWithServiceError(w, r, err, "Failed to register user", logrus.Fields{})
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.respondWithServiceError(w, r, err, "Failed to sign in", logrus.Fields{})
		return
	}

	s.sessions.SetCookie(w, resp.Token)
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	respondWithJSON(w, http.StatusOK, map[string]string{"id": caller.UserID, "email": caller.Email})
}
