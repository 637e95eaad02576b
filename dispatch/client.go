package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"github.com/jrsteele09/go-meeting-form/meeting"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	// BaseURL is the GitHub REST API root
	BaseURL    = "https://api.github.com"
	APIVersion = "2022-11-28"
	MediaType  = "application/vnd.github+json"

	maxErrorBody = 64 << 10
)

// Dispatcher triggers the workflow that processes a meeting record.
type Dispatcher interface {
	Dispatch(ctx context.Context, oauthCode string, record meeting.Record) error
}

// Config holds the repository, workflow and credentials used for dispatches.
type Config struct {
	Owner    string
	Repo     string
	Workflow string
	Ref      string
	// Token is the personal access token sent as a bearer credential
	Token string
	// Optional: override base URL for testing
	BaseURL string
	// Optional: transport under the bearer auth layer
	Transport http.RoundTripper
}

// Request is the body of a workflow_dispatch call.
type Request struct {
	Ref    string `json:"ref"`
	Inputs Inputs `json:"inputs"`
}

// Inputs are the workflow inputs. GitHub only accepts string values.
type Inputs struct {
	OAuthCode      string `json:"oauth_code"`
	MeetingPayload string `json:"meeting_payload"`
}

// Client calls the GitHub Actions workflow dispatch endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
}

var _ Dispatcher = (*Client)(nil)

// NewClient creates a dispatch client. There is no client timeout: a dispatch
// resolves when the transport does.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	base := config.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Base:   base,
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"}),
			},
		},
		config: config,
	}
}

// URL returns the dispatch endpoint for the configured workflow.
func (c *Client) URL() string {
	return fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/dispatches",
		c.config.BaseURL,
		url.PathEscape(c.config.Owner),
		url.PathEscape(c.config.Repo),
		url.PathEscape(c.config.Workflow),
	)
}

// NewRequest builds the dispatch body for a record and the OAuth code that
// authorised it.
func NewRequest(ref, oauthCode string, record meeting.Record) (Request, error) {
	payload, err := record.Payload()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Ref: ref,
		Inputs: Inputs{
			OAuthCode:      oauthCode,
			MeetingPayload: payload,
		},
	}, nil
}

// Dispatch sends exactly one request. It is never retried.
func (c *Client) Dispatch(ctx context.Context, oauthCode string, record meeting.Record) error {
	body, err := NewRequest(c.config.Ref, oauthCode, record)
	if err != nil {
		return err
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("[dispatch Dispatch] marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("[dispatch Dispatch] create request: %w", err)
	}
	req.Header.Set("Accept", MediaType)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[dispatch Dispatch] %w: %w", errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Debug().
			Int("status", resp.StatusCode).
			Str("workflow", c.config.Workflow).
			Msg("workflow dispatched")
		return nil
	}

	return newStatusError(resp)
}
