package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"github.com/jrsteele09/go-meeting-form/session"
	"github.com/rs/zerolog/log"
)

// sessionCookieName carries the browser-session ID. It has no Max-Age, so the
// browser drops it when the session ends, taking the stored code with it.
const sessionCookieName = "meeting_session"

func (s *Server) SetSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionFromRequest returns the caller's session ID, starting a new session
// when the cookie is absent or refers to an unknown or expired session.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		sess, err := s.sessions.Get(cookie.Value)
		switch {
		case err == nil && !s.expired(sess):
			return cookie.Value, nil
		case err == nil:
			log.Info().
				Err(errors.ErrSessionExpired).
				Str("session", sess.ID).
				Dur("age", NowTimeFunc().Sub(sess.CreatedAt)).
				Msg("starting a new session")
			_ = s.sessions.Delete(cookie.Value)
		case !errors.Is(err, errors.ErrSessionNotFound):
			return "", err
		}
	}

	now := NowTimeFunc()
	sess := session.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.sessions.Upsert(sess); err != nil {
		return "", errors.Wrapf(err, "[Server sessionFromRequest] create session")
	}
	s.SetSessionCookie(w, sess.ID, r)
	return sess.ID, nil
}

func (s *Server) expired(sess session.Session) bool {
	return NowTimeFunc().Sub(sess.LastSeen) > s.config.GetMaxSessionAge()
}

// redirectSuccess redirects with See Other so the browser follows with a GET
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
