// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package console serves the Synchub web console.
//
// Public routes are the login and registration forms. Everything under the
// navigation bar sits behind the route guard, which sends signed-out visitors
// to /login with the page they asked for recorded in the from parameter.
package console

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/pterm/pterm"

	"synchub/cli/internal/auth"
	"synchub/cli/internal/guard"
	"synchub/cli/internal/logging"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = map[string]*template.Template{
	"login":    parsePage("login.html"),
	"register": parsePage("register.html"),
	"page":     parsePage("page.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFiles, "templates/base.html", "templates/"+name))
}

// Authenticator is the auth surface the console drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, confirm string) error
	Logout(ctx context.Context) error
	WhoAmI() (auth.Identity, bool)
}

// Server is the web console.
type Server struct {
	auth    Authenticator
	session guard.SessionReader
	guard   *guard.Guard
	logger  *pterm.Logger
	router  *BasicRouter
}

// New builds the console and registers its routes.
func New(a Authenticator, sess guard.SessionReader, logger *pterm.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		auth:    a,
		session: sess,
		guard:   guard.New(sess, "/login"),
		logger:  logger,
		router:  NewBasicRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(RecoverMiddleware(s.logger), LoggingMiddleware(s.logger), SecurityHeadersMiddleware(), CrossOriginMiddleware(s.logger))

	r.HandleFunc(http.MethodGet, "/{$}", redirectTo(guard.DefaultReturnPath))
	r.HandleFunc(http.MethodGet, "/login", s.loginPage)
	r.HandleFunc(http.MethodPost, "/login", s.loginSubmit)
	r.HandleFunc(http.MethodGet, "/register", s.registerPage)
	r.HandleFunc(http.MethodPost, "/register", s.registerSubmit)
	r.HandleFunc(http.MethodPost, "/logout", s.logout)

	for _, p := range protectedPages {
		r.Handle(http.MethodGet, p.Path, s.guard.Middleware(s.protectedPage(p)))
	}

	r.HandleFunc("", "/", redirectTo("/"))
}

// Handler returns the console as an http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down console")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("console shutdown failed", s.logger.Args("error", err))
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.Error("template render failed", s.logger.Args("page", page, "error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}
