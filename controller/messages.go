package controller

import (
	"fmt"

	"github.com/jrsteele09/go-meeting-form/dispatch"
	"github.com/jrsteele09/go-meeting-form/internal/config"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
)

const (
	MsgLoggedOut          = "Logged out successfully"
	MsgAuthExpired        = "Authentication expired. Please login again."
	MsgSubmitted          = "Meeting record submitted successfully! Processing in background..."
	MsgReauthenticate     = "Please re-authenticate for your next submission."
	MsgSubmitInProgress   = "A submission is already in progress."
	MsgStateInvalid       = "Login could not be verified. Please login again."
	MsgAuthFailed         = "Error: Authentication failed. Please check your GitHub PAT configuration."
	MsgNetworkError       = "Error: Network error. Please check your connection and try again."
	msgWorkflowNotFound   = "Error: Workflow file not found. Please ensure %s exists."
	msgDispatchFailed     = "Error: Failed to submit meeting (%d). Check the server logs for details."
	msgUnexpectedFailure  = "Error: Failed to submit meeting. Check the server logs for details."
	msgConfigurationError = "Please configure %s."
	msgAuthorizationError = "Authorization failed: %s"
)

// ConfigurationMessage is the alert shown for a missing or placeholder setting.
func ConfigurationMessage(err error) string {
	var missing *config.MissingSettingError
	if errors.As(err, &missing) {
		return fmt.Sprintf(msgConfigurationError, missing.Setting)
	}
	return "Configuration error: " + err.Error()
}

// DispatchMessage is the alert shown for a failed dispatch.
func DispatchMessage(err error, workflow string) string {
	var statusErr *dispatch.StatusError
	switch {
	case errors.Is(err, errors.ErrWorkflowNotFound):
		return fmt.Sprintf(msgWorkflowNotFound, workflow)
	case errors.Is(err, errors.ErrUnauthorized):
		return MsgAuthFailed
	case errors.As(err, &statusErr):
		return fmt.Sprintf(msgDispatchFailed, statusErr.StatusCode)
	case errors.Is(err, errors.ErrTransport):
		return MsgNetworkError
	default:
		return msgUnexpectedFailure
	}
}

func authorizationMessage(code, description string) string {
	if description != "" {
		return fmt.Sprintf(msgAuthorizationError, description)
	}
	return fmt.Sprintf(msgAuthorizationError, code)
}
