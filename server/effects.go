package server

import (
	"time"

	"github.com/jrsteele09/go-meeting-form/controller"
	"github.com/jrsteele09/go-meeting-form/meeting"
	"github.com/jrsteele09/go-meeting-form/session"
	"github.com/rs/zerolog/log"
)

// outcome holds the effects that need the request: where to send the browser
// and which dispatch to run.
type outcome struct {
	redirect string
	dispatch *controller.Dispatch
}

// transition feeds ev to the controller for the given session and applies the
// effects that only touch session state. It runs under the repo's write lock,
// so the Submitting check-and-set cannot race.
func (s *Server) transition(sessionID string, ev controller.Event) (session.Session, outcome, error) {
	var out outcome
	sess, err := s.sessions.Update(sessionID, func(sess *session.Session) error {
		now := NowTimeFunc()
		if submit, ok := ev.(controller.SubmitRequested); ok {
			sess.Form = submit.Record
		}

		next, effects := s.controller.Handle(sess.State, ev)
		sess.State = next
		sess.LastSeen = now

		for _, effect := range effects {
			switch e := effect.(type) {
			case controller.StripCode:
				out.redirect = RouteIndex
			case controller.Navigate:
				out.redirect = e.URL
			case controller.Dispatch:
				d := e
				out.dispatch = &d
			case controller.ShowAlert:
				a := e.Alert
				sess.Flash = &a
			case controller.ResetForm:
				sess.Form = meeting.Default(now)
			case controller.ScheduleReauth:
				sess.ReauthAt = now.Add(e.After)
			case controller.LogError:
				log.Error().
					Err(e.Err).
					Str("session", sessionID).
					Str("phase", next.Phase.String()).
					Msg(e.Message)
			}
		}

		if next.HasCredential() || next.View == controller.ViewLogin {
			sess.ReauthAt = time.Time{}
		}
		return nil
	})
	return sess, out, err
}
