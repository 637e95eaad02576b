package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-meeting-form/internal/errors"
)

// StatusError is a non-2xx answer from the dispatch endpoint.
type StatusError struct {
	StatusCode       int
	Message          string
	DocumentationURL string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dispatch failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("dispatch failed with status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to its error class.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return errors.ErrWorkflowNotFound
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	default:
		return errors.ErrDispatchFailed
	}
}

// githubError is GitHub's JSON error body.
type githubError struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

func newStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return statusErr
	}
	var ghErr githubError
	if err := json.Unmarshal(body, &ghErr); err != nil {
		return statusErr
	}
	statusErr.Message = ghErr.Message
	statusErr.DocumentationURL = ghErr.DocumentationURL
	return statusErr
}
