package server

import (
	"context"
	"math"
	"net/http"

	"github.com/jrsteele09/go-meeting-form/controller"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"github.com/jrsteele09/go-meeting-form/meeting"
	"github.com/jrsteele09/go-meeting-form/session"
	"github.com/rs/zerolog/log"
)

// errDispatchAborted is reported when Dispatch never returns normally.
var errDispatchAborted = errors.Wrapf(errors.ErrDispatchFailed, "dispatch aborted")

// PageData is what the form page template renders.
type PageData struct {
	AppName        string
	ShowLogin      bool
	ShowForm       bool
	Username       string
	Alert          *controller.Alert
	Form           meeting.Record
	SubmitDisabled bool
	ReauthURL      string
	ReauthSeconds  int
}

// PageHandler is the page load (GET /), including the OAuth redirect landing.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionFromRequest(w, r)
		if err != nil {
			s.sessionError(w, err)
			return
		}

		q := r.URL.Query()
		ev := controller.PageLoaded{
			Session:          sessionID,
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}
		_, out, err := s.transition(sessionID, ev)
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if out.redirect != "" {
			// Drop code and state from the address bar
			redirectSuccess(w, r, out.redirect)
			return
		}
		s.renderPage(w, sessionID)
	}
}

// LoginHandler sends the browser to GitHub, or back to the page with a
// configuration error.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionFromRequest(w, r)
		if err != nil {
			s.sessionError(w, err)
			return
		}
		_, out, err := s.transition(sessionID, controller.LoginRequested{Session: sessionID})
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if out.redirect != "" {
			redirectSuccess(w, r, out.redirect)
			return
		}
		redirectSuccess(w, r, RouteIndex)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionFromRequest(w, r)
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if _, _, err := s.transition(sessionID, controller.LogoutRequested{}); err != nil {
			s.sessionError(w, err)
			return
		}
		redirectSuccess(w, r, RouteIndex)
	}
}

// ReauthHandler fires the ReauthDue event scheduled after a successful submit.
func (s *Server) ReauthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionFromRequest(w, r)
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if _, _, err := s.transition(sessionID, controller.ReauthDue{}); err != nil {
			s.sessionError(w, err)
			return
		}
		redirectSuccess(w, r, RouteIndex)
	}
}

// SubmitHandler handles the form post. The result is rendered in place, as the
// success view has to stay up until the reauth delay has passed.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionFromRequest(w, r)
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		record := meeting.FromForm(r.PostForm)
		_, out, err := s.transition(sessionID, controller.SubmitRequested{Record: record})
		if err != nil {
			s.sessionError(w, err)
			return
		}
		if out.dispatch != nil {
			// Not cancellable: a client disconnect must not abort the call.
			s.runDispatch(context.WithoutCancel(r.Context()), sessionID, *out.dispatch)
		}
		if out.redirect != "" {
			redirectSuccess(w, r, out.redirect)
			return
		}
		s.renderPage(w, sessionID)
	}
}

// runDispatch performs the one outbound call. DispatchFinished is always fed
// back, from a deferred call, so the submit control is re-enabled even if the
// dispatcher panics.
func (s *Server) runDispatch(ctx context.Context, sessionID string, d controller.Dispatch) {
	dispatchErr := errDispatchAborted
	defer func() {
		if _, _, err := s.transition(sessionID, controller.DispatchFinished{OAuthCode: d.OAuthCode, Err: dispatchErr}); err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("failed to record dispatch outcome")
		}
	}()
	dispatchErr = s.dispatcher.Dispatch(ctx, d.OAuthCode, d.Record)
}

func (s *Server) renderPage(w http.ResponseWriter, sessionID string) {
	var data PageData
	_, err := s.sessions.Update(sessionID, func(sess *session.Session) error {
		data = s.pageData(sess)
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	if err := s.pageTmpl.Execute(w, data); err != nil {
		log.Err(err).Msg("Failed to render form page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// pageData consumes the flash alert while building the template data.
func (s *Server) pageData(sess *session.Session) PageData {
	form := sess.Form
	if form == (meeting.Record{}) {
		form = meeting.Default(NowTimeFunc())
	}

	data := PageData{
		AppName:        s.config.GetAppName(),
		ShowLogin:      sess.State.View == controller.ViewLogin,
		ShowForm:       sess.State.View == controller.ViewSubmission,
		Username:       "GitHub User",
		Alert:          sess.TakeFlash(),
		Form:           form,
		SubmitDisabled: !sess.State.SubmitEnabled(),
	}
	if !sess.ReauthAt.IsZero() {
		data.ReauthURL = RouteReauth
		data.ReauthSeconds = int(math.Max(0, math.Ceil(sess.ReauthAt.Sub(NowTimeFunc()).Seconds())))
	}
	return data
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("session error")
	http.Error(w, "Session error, please reload the page", http.StatusInternalServerError)
}
