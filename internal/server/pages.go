package server

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	loginPath  = "/login"
	signupPath = "/signup"
	todosPath  = "/todos"
)

//go:embed web
var webFS embed.FS

var pages = template.Must(template.ParseFS(webFS, "web/templates/*.html"))

var (
	publicPagePrefixes = []string{loginPath, signupPath}
	gateExemptPrefixes = []string{"/api/", "/static/", "/health", "/favicon.ico"}
)

// pageGate redirects page requests by session state: anonymous visitors go
// to the login page, signed-in users are kept off login and signup. API and
// asset paths pass through untouched; API handlers answer 401 themselves.
func (s *Server) pageGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api" || hasAnyPrefix(path, gateExemptPrefixes) {
			next.ServeHTTP(w, r)
			return
		}

		_, authenticated := s.sessions.Identify(r)
		public := hasAnyPrefix(path, publicPagePrefixes)

		switch {
		case !authenticated && !public:
			http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
		case authenticated && public:
			http.Redirect(w, r, todosPath, http.StatusTemporaryRedirect)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

type pageData struct {
	Email string
}

func (s *Server) renderPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data pageData
		if caller, ok := s.sessions.Identify(r); ok {
			data.Email = caller.Email
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pages.ExecuteTemplate(w, name, data); err != nil {
			s.log.WithError(err).
				WithField("request_id", middleware.GetReqID(r.Context())).
				WithField("page", name).
				Error("render page")
		}
	}
}
