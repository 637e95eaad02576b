package controller

import (
	"fmt"

	"github.com/jrsteele09/go-meeting-form/internal/config"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Config is the subset of configuration the controller reads.
type Config interface {
	config.GitHubConfig
	config.FormConfig
}

// StateIssuer signs the OAuth state sent to GitHub and verifies it on return.
// Both sides are bound to the browser session and return the state's ID.
type StateIssuer interface {
	Issue(sessionID string) (state string, id string, err error)
	Verify(state, sessionID string) (id string, err error)
}

// Controller is the form's state machine. Handle never performs I/O itself:
// network calls, redirects and timers are returned as effects.
type Controller struct {
	config Config
	states StateIssuer
}

// New creates a controller. states may be nil, in which case no state
// parameter is sent or checked.
func New(cfg Config, states StateIssuer) *Controller {
	return &Controller{config: cfg, states: states}
}

// Handle applies one event to the current state.
func (c *Controller) Handle(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case PageLoaded:
		return c.pageLoaded(s, ev)
	case LoginRequested:
		return c.loginRequested(s, ev)
	case LogoutRequested:
		return loggedOut(s), []Effect{alert(AlertInfo, MsgLoggedOut)}
	case SubmitRequested:
		return c.submitRequested(s, ev)
	case DispatchFinished:
		return c.dispatchFinished(s, ev)
	case ReauthDue:
		return c.reauthDue(s)
	default:
		return s, []Effect{LogError{Message: "unknown event", Err: fmt.Errorf("unhandled event %T", ev)}}
	}
}

func (c *Controller) pageLoaded(s State, ev PageLoaded) (State, []Effect) {
	if ev.Error != "" {
		err := errors.Wrapf(errors.ErrAuthorizationDenied, "%s", ev.Error)
		return loggedOut(s), []Effect{
			StripCode{},
			LogError{Message: "authorization returned an error", Err: err},
			alert(AlertError, authorizationMessage(ev.Error, ev.ErrorDescription)),
		}
	}

	if ev.Code != "" {
		if c.states != nil {
			if err := c.verifyState(s, ev); err != nil {
				return loggedOut(s), []Effect{
					StripCode{},
					LogError{Message: "oauth state rejected", Err: err},
					alert(AlertError, MsgStateInvalid),
				}
			}
		}
		next := State{Phase: PhaseAuthenticated, Credential: ev.Code, View: ViewSubmission}
		if s.Phase == PhaseSubmitting {
			// Landed from another tab while a dispatch is still running
			next.Phase = PhaseSubmitting
		}
		return next, []Effect{StripCode{}}
	}

	if s.HasCredential() {
		s.View = ViewSubmission
		if s.Phase == PhaseNotAuthenticated {
			s.Phase = PhaseAuthenticated
		}
		return s, nil
	}
	return loggedOut(s), nil
}

// verifyState accepts only the state most recently issued to this session.
// A successful landing consumes it, so a replay finds no pending state.
func (c *Controller) verifyState(s State, ev PageLoaded) error {
	id, err := c.states.Verify(ev.State, ev.Session)
	if err != nil {
		return err
	}
	if s.PendingState == "" || id != s.PendingState {
		return errors.Wrapf(errors.ErrInvalidState, "state %s is not pending", id)
	}
	return nil
}

func (c *Controller) loginRequested(s State, ev LoginRequested) (State, []Effect) {
	if err := c.config.ValidateLogin(); err != nil {
		return s, []Effect{
			LogError{Message: "login is not configured", Err: err},
			alert(AlertError, ConfigurationMessage(err)),
		}
	}

	authURL, stateID, err := c.AuthorizeURL(ev.Session)
	if err != nil {
		return s, []Effect{
			LogError{Message: "failed to build authorize url", Err: err},
			alert(AlertError, "Error: Unable to start login. Please try again."),
		}
	}
	s.PendingState = stateID
	return s, []Effect{Navigate{URL: authURL}}
}

// AuthorizeURL builds the GitHub authorize redirect. When an issuer is
// configured it signs a fresh state for sessionID and returns its ID.
func (c *Controller) AuthorizeURL(sessionID string) (string, string, error) {
	oauthConfig := oauth2.Config{
		ClientID:    c.config.GetClientID(),
		RedirectURL: c.config.GetRedirectURI(),
		Scopes:      c.config.GetScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.config.GetAuthorizeURL(),
			TokenURL: github.Endpoint.TokenURL,
		},
	}

	var state, stateID string
	if c.states != nil {
		var err error
		if state, stateID, err = c.states.Issue(sessionID); err != nil {
			return "", "", err
		}
	}
	return oauthConfig.AuthCodeURL(state), stateID, nil
}

func (c *Controller) submitRequested(s State, ev SubmitRequested) (State, []Effect) {
	if s.Phase == PhaseSubmitting {
		return s, []Effect{
			LogError{Message: "submit refused", Err: errors.ErrSubmitInProgress},
			alert(AlertError, MsgSubmitInProgress),
		}
	}

	if err := c.config.ValidateDispatch(); err != nil {
		return s, []Effect{
			LogError{Message: "dispatch is not configured", Err: err},
			alert(AlertError, ConfigurationMessage(err)),
		}
	}

	if !s.HasCredential() {
		return loggedOut(s), []Effect{
			LogError{Message: "submit without credential", Err: errors.ErrAuthenticationExpired},
			alert(AlertError, MsgAuthExpired),
		}
	}

	s.Phase = PhaseSubmitting
	s.View = ViewSubmission
	return s, []Effect{Dispatch{OAuthCode: s.Credential, Record: ev.Record}}
}

func (c *Controller) dispatchFinished(s State, ev DispatchFinished) (State, []Effect) {
	if ev.Err == nil {
		if s.HasCredential() && s.Credential != ev.OAuthCode {
			// A fresh code landed while the dispatch ran; it has not been used.
			return State{Phase: PhaseAuthenticated, Credential: s.Credential, View: ViewSubmission, PendingState: s.PendingState}, []Effect{
				alert(AlertSuccess, MsgSubmitted),
				ResetForm{},
			}
		}
		// The code is one-shot: the next submission needs a new login.
		return State{Phase: PhaseNotAuthenticated, View: ViewSubmission, PendingState: s.PendingState}, []Effect{
			alert(AlertSuccess, MsgSubmitted),
			ResetForm{},
			ScheduleReauth{After: c.config.GetReauthDelay()},
		}
	}

	if s.HasCredential() {
		s.Phase = PhaseAuthenticated
	} else {
		s.Phase = PhaseNotAuthenticated
	}
	return s, []Effect{
		LogError{Message: "workflow dispatch failed", Err: ev.Err},
		alert(AlertError, DispatchMessage(ev.Err, c.config.GetWorkflow())),
	}
}

func (c *Controller) reauthDue(s State) (State, []Effect) {
	if s.HasCredential() {
		// Logged in again before the timer fired.
		return s, nil
	}
	return loggedOut(s), []Effect{alert(AlertInfo, MsgReauthenticate)}
}
