package session

import (
	"time"

	"github.com/jrsteele09/go-meeting-form/controller"
	"github.com/jrsteele09/go-meeting-form/meeting"
)

// Session is the browser-session-scoped form state, keyed by the session cookie.
type Session struct {
	ID    string
	State controller.State

	// Flash is shown once on the next render
	Flash *controller.Alert
	// Form holds the values to render into the form
	Form meeting.Record
	// ReauthAt is when the scheduled ReauthDue should fire; zero if none
	ReauthAt time.Time

	CreatedAt time.Time
	LastSeen  time.Time
}

// TakeFlash returns the pending alert and clears it.
func (s *Session) TakeFlash() *controller.Alert {
	flash := s.Flash
	s.Flash = nil
	return flash
}

type Repo interface {
	Upsert(session Session) error
	Get(sessionID string) (Session, error)
	// Update applies fn to the stored session atomically and stores the result.
	Update(sessionID string, fn func(*Session) error) (Session, error)
	Delete(sessionID string) error
	// Sweep removes sessions not seen since before and returns how many.
	Sweep(before time.Time) int
}
