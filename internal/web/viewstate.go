package web

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/JonMunkholm/suicide-explorer/internal/config"
	"github.com/JonMunkholm/suicide-explorer/internal/logging"
)

// ViewState is the set of optional dashboard panels a session has opened.
type ViewState uint8

const (
	ShowDataset ViewState = 1 << iota
	ShowColumns

	viewMask = ShowDataset | ShowColumns
)

const (
	sessionName = "explorer"
	viewKey     = "view"
)

// Has reports whether every flag in f is set.
func (v ViewState) Has(f ViewState) bool { return v&f == f }

// With returns v with f set.
func (v ViewState) With(f ViewState) ViewState { return v | f }

func newSessionStore(cfg config.SecurityConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30) // 30 days
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookies
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// viewState reads the session's panels. A missing or tampered cookie yields
// the zero state.
func (s *Server) viewState(r *http.Request) ViewState {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		logging.FromContext(r.Context()).Debug("session decode failed, using default view", "error", err)
		return 0
	}
	v, _ := session.Values[viewKey].(uint8)
	return ViewState(v) & viewMask
}

// saveViewState stores v in the session cookie.
func (s *Server) saveViewState(w http.ResponseWriter, r *http.Request, v ViewState) error {
	// Get returns a fresh session alongside a decode error; it is safe to overwrite.
	session, _ := s.sessions.Get(r, sessionName)
	session.Values[viewKey] = uint8(v & viewMask)
	return session.Save(r, w)
}
