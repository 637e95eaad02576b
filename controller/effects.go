package controller

import (
	"time"

	"github.com/jrsteele09/go-meeting-form/meeting"
)

// Effect is work the caller must perform after a transition.
type Effect interface {
	isEffect()
}

type AlertKind string

const (
	AlertInfo    AlertKind = "info"
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
)

type Alert struct {
	Kind    AlertKind
	Message string
}

// StripCode removes the OAuth parameters from the visible URL.
type StripCode struct{}

// Navigate sends the browser to URL.
type Navigate struct {
	URL string
}

// Dispatch asks the caller to trigger the workflow and report back with
// DispatchFinished.
type Dispatch struct {
	OAuthCode string
	Record    meeting.Record
}

type ShowAlert struct {
	Alert Alert
}

// ResetForm puts the form fields back to their defaults.
type ResetForm struct{}

// ScheduleReauth asks for a ReauthDue event after the given delay.
type ScheduleReauth struct {
	After time.Duration
}

// LogError records a diagnostic for the operator.
type LogError struct {
	Message string
	Err     error
}

func (StripCode) isEffect()      {}
func (Navigate) isEffect()       {}
func (Dispatch) isEffect()       {}
func (ShowAlert) isEffect()      {}
func (ResetForm) isEffect()      {}
func (ScheduleReauth) isEffect() {}
func (LogError) isEffect()       {}

func alert(kind AlertKind, message string) ShowAlert {
	return ShowAlert{Alert: Alert{Kind: kind, Message: message}}
}
