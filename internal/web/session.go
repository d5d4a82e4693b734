package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie names the cookie that keys a visitor's shortlist.
const SessionCookie = "w2w_session"

// readSession returns the session id from the request cookie, or "" when
// the cookie is absent or not a UUID.
func readSession(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// ensureSession returns the request's session id, issuing a new cookie
// when there is none.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id := readSession(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
