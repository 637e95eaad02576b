package controller

import "github.com/jrsteele09/go-meeting-form/meeting"

// Event is an input to the controller.
type Event interface {
	isEvent()
}

// PageLoaded is a load of the form page, possibly the OAuth redirect landing.
// Session identifies the browser session the returned state must belong to.
type PageLoaded struct {
	Session          string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// LoginRequested is a click on the login button.
type LoginRequested struct {
	Session string
}

// LogoutRequested is a click on the logout button.
type LogoutRequested struct{}

// SubmitRequested is a form submission.
type SubmitRequested struct {
	Record meeting.Record
}

// DispatchFinished carries the outcome of a Dispatch effect. OAuthCode is the
// code that was sent.
type DispatchFinished struct {
	OAuthCode string
	Err       error
}

// ReauthDue fires once the delay requested by ScheduleReauth has passed.
type ReauthDue struct{}

func (PageLoaded) isEvent()       {}
func (LoginRequested) isEvent()   {}
func (LogoutRequested) isEvent()  {}
func (SubmitRequested) isEvent()  {}
func (DispatchFinished) isEvent() {}
func (ReauthDue) isEvent()        {}
