package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tomlord1122/todo-server/internal/auth"
	"github.com/Tomlord1122/todo-server/internal/database"
	"github.com/Tomlord1122/todo-server/internal/service"
)

// Options carries everything the HTTP layer depends on.
type Options struct {
	Port           int
	AllowedOrigins []string

	TodoService service.TodoService
	AuthService service.AuthService
	Sessions    *auth.Sessions
	DB          database.Service
	Logger      *logrus.Logger
}

type Server struct {
	port           int
	allowedOrigins []string

	todoService service.TodoService
	authService service.AuthService
	sessions    *auth.Sessions
	db          database.Service
	log         *logrus.Logger
}

// New builds the request handlers; use RegisterRoutes to get the router.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		port:           opts.Port,
		allowedOrigins: opts.AllowedOrigins,
		todoService:    opts.TodoService,
		authService:    opts.AuthService,
		sessions:       opts.Sessions,
		db:             opts.DB,
		log:            log,
	}
}

// NewServer returns an *http.Server listening on opts.Port.
func NewServer(opts Options) *http.Server {
	appServer := New(opts)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
