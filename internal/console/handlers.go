// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package console

import (
	"errors"
	"net/http"
	"strings"

	"synchub/cli/internal/auth"
	apperrors "synchub/cli/internal/errors"
	"synchub/cli/internal/guard"
)

type navItem struct {
	Path   string
	Label  string
	Active bool
}

type link struct {
	Href  string
	Label string
}

type section struct {
	Heading string
	Body    string
	Link    *link
}

type formState struct {
	Email   string
	From    string
	General string
	Errors  map[string]string
}

type pageData struct {
	Title    string
	Lead     string
	Nav      []navItem
	Form     formState
	Sections []section
	Identity string
}

type protected struct {
	Path     string
	Label    string
	Lead     string
	Sections []section
}

var protectedPages = []protected{
	{
		Path:  "/dashboard",
		Label: "Dashboard",
		Lead:  "Connect your accounts and keep your music in sync across streaming platforms.",
		Sections: []section{
			{Heading: "Spotify", Body: "Connect your Spotify account to sync playlists and liked songs.", Link: &link{Href: "/auth/spotify/login", Label: "Connect Spotify"}},
			{Heading: "YouTube Music", Body: "Connect your YouTube Music account to sync playlists and liked videos.", Link: &link{Href: "/auth/youtube/login", Label: "Connect YouTube Music"}},
		},
	},
	{
		Path:     "/playlists",
		Label:    "Playlists",
		Lead:     "Playlists from your connected services will appear here.",
		Sections: []section{{Heading: "Sync", Body: "Playlist synchronization is not available yet."}},
	},
	{
		Path:     "/liked",
		Label:    "Liked Songs",
		Lead:     "Your liked songs and videos will appear here.",
		Sections: []section{{Heading: "Sync", Body: "Liked-song synchronization is not available yet."}},
	},
	{
		Path:  "/settings",
		Label: "Settings",
		Lead:  "Manage connected services and sync preferences.",
		Sections: []section{
			{Heading: "Connected services", Body: "No services connected."},
			{Heading: "Sync preferences", Body: "Automatic sync is off."},
		},
	},
}

func navFor(active string) []navItem {
	items := make([]navItem, 0, len(protectedPages))
	for _, p := range protectedPages {
		items = append(items, navItem{Path: p.Path, Label: p.Label, Active: p.Path == active})
	}
	return items
}

func (s *Server) protectedPage(p protected) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Title:    p.Label,
			Lead:     p.Lead,
			Nav:      navFor(p.Path),
			Sections: p.Sections,
		}
		if id, ok := s.auth.WhoAmI(); ok && id.Subject != "" {
			data.Identity = "user " + id.Subject
		}
		s.render(w, http.StatusOK, "page", data)
	})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get(guard.FromParam)
	if s.session.Authenticated() {
		http.Redirect(w, r, guard.ReturnPath(from), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", pageData{Title: "Sign In", Form: formState{From: from}})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	from := r.PostFormValue(guard.FromParam)

	err := s.auth.Login(r.Context(), email, r.PostFormValue("password"))
	if err == nil {
		http.Redirect(w, r, guard.ReturnPath(from), http.StatusSeeOther)
		return
	}

	form := formState{Email: email, From: from}
	status := http.StatusUnauthorized
	var fe *auth.FieldError
	if errors.As(err, &fe) {
		status = http.StatusBadRequest
		form.Errors = map[string]string{fe.Field: fe.Message}
	} else {
		s.logger.Warn("console login failed", s.logger.Args("email", email, "kind", apperrors.KindOf(err)))
		form.General = "Login failed"
	}
	s.render(w, status, "login", pageData{Title: "Sign In", Form: form})
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register", pageData{Title: "Create Account"})
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	err := s.auth.Register(r.Context(), email, r.PostFormValue("password"), r.PostFormValue("confirm_password"))
	if err == nil {
		http.Redirect(w, r, guard.DefaultReturnPath, http.StatusSeeOther)
		return
	}

	form := formState{Email: email}
	status := http.StatusBadRequest
	var fe *auth.FieldError
	switch {
	case apperrors.Is(err, apperrors.DuplicateAccount):
		form.Errors = map[string]string{"email": "Email already registered"}
	case errors.As(err, &fe):
		form.Errors = map[string]string{fe.Field: fe.Message}
	default:
		if apperrors.Is(err, apperrors.Transport) {
			status = http.StatusBadGateway
		}
		s.logger.Warn("console registration failed", s.logger.Args("email", email, "kind", apperrors.KindOf(err)))
		form.General = "Registration failed. Please try again."
	}
	s.render(w, status, "register", pageData{Title: "Create Account", Form: form})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	_ = s.auth.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
