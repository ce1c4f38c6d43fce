package server

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/todo-server/internal/domain"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgTodoNotFound     = "Todo not found"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(s.pageGate)

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signupHandler)
			r.Post("/login", s.loginHandler)
			r.Post("/logout", s.logoutHandler)
			r.Get("/session", s.withIdentity(s.sessionHandler))
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", s.withIdentity(s.listTodosHandler))
			r.Post("/", s.withIdentity(s.createTodoHandler))
			r.Get("/{id}", s.withIdentity(s.getTodoHandler))
			r.Put("/{id}", s.withIdentity(s.updateTodoHandler))
			r.Patch("/{id}", s.withIdentity(s.updateTodoStatusHandler))
			r.Delete("/{id}", s.withIdentity(s.deleteTodoHandler))
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondWithError(w, http.StatusNotFound, "Not found")
		})
	})

	static, _ := fs.Sub(webFS, "web/static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, todosPath, http.StatusTemporaryRedirect)
	})
	r.Get(loginPath, s.renderPage("login.html"))
	r.Get(signupPath, s.renderPage("signup.html"))
	r.Get(todosPath, s.renderPage("todos.html"))

	return r
}

// identifiedHandler receives the caller resolved once for the request.
type identifiedHandler func(w http.ResponseWriter, r *http.Request, caller domain.Identity)

// withIdentity resolves the caller and answers 401 before h runs when
// there is none.
func (s *Server) withIdentity(h identifiedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.sessions.Identify(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		h(w, r, caller)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}
