package controller

// Phase is where the user is in the login → submit cycle.
type Phase int

const (
	PhaseNotAuthenticated Phase = iota
	PhaseAuthenticated
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "not_authenticated"
	}
}

// View is the visible panel. Being a single value, only one panel can ever
// be shown.
type View int

const (
	ViewLogin View = iota
	ViewSubmission
)

func (v View) String() string {
	if v == ViewSubmission {
		return "submission"
	}
	return "login"
}

// State is everything the form remembers between events.
type State struct {
	Phase        Phase
	// Credential is the OAuth authorization code captured from the redirect
	Credential   string
	View         View
	// PendingState is the ID of the last OAuth state sent to GitHub and not
	// yet returned. A state is accepted once, and only if it matches.
	PendingState string
}

// HasCredential reports whether an OAuth code is stored.
func (s State) HasCredential() bool {
	return s.Credential != ""
}

// SubmitEnabled is false while a dispatch is in flight.
func (s State) SubmitEnabled() bool {
	return s.Phase != PhaseSubmitting
}

// loggedOut drops the credential and shows the login view. Submitting is only
// ever left through DispatchFinished, so an in-flight dispatch keeps the
// submit control disabled.
func loggedOut(s State) State {
	next := State{Phase: PhaseNotAuthenticated, View: ViewLogin, PendingState: s.PendingState}
	if s.Phase == PhaseSubmitting {
		next.Phase = PhaseSubmitting
	}
	return next
}
