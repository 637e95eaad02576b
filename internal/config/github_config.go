package config

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"golang.org/x/oauth2/github"
)

const (
	ClientIDSetting    = "GITHUB_CLIENT_ID"
	PATSetting         = "GITHUB_PAT"
	RepoOwnerSetting   = "GITHUB_REPO_OWNER"
	RepoNameSetting    = "GITHUB_REPO_NAME"
	RedirectURISetting = "GITHUB_REDIRECT_URI"

	// Values shipped in config.example.yaml
	PlaceholderClientID = "YOUR_GITHUB_OAUTH_CLIENT_ID"
	PlaceholderPAT      = "YOUR_GITHUB_CLASSIC_PAT"

	DefaultWorkflow   = "submit_meeting.yml"
	DefaultRef        = "main"
	DefaultAPIBaseURL = "https://api.github.com"
	// ScopeUserEmail is the only scope requested from the user
	ScopeUserEmail = "user:email"
)

// MissingSettingError reports a setting that is unset or still holds a
// template placeholder.
type MissingSettingError struct {
	Setting string
}

func (e *MissingSettingError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

func (e *MissingSettingError) Unwrap() error {
	return errors.ErrConfiguration
}

// IsPlaceholder reports whether v is empty or a YOUR_... template value.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(strings.ToUpper(v), "YOUR_")
}

func (c mainConfig) GetClientID() string {
	return c.settings.GitHub.ClientID
}

func (c mainConfig) GetPAT() string {
	return c.settings.GitHub.PAT
}

func (c mainConfig) GetRepoOwner() string {
	return c.settings.GitHub.RepoOwner
}

func (c mainConfig) GetRepoName() string {
	return c.settings.GitHub.RepoName
}

func (c mainConfig) GetRedirectURI() string {
	return c.settings.GitHub.RedirectURI
}

func (c mainConfig) GetWorkflow() string {
	return valueOr(c.settings.GitHub.Workflow, DefaultWorkflow)
}

func (c mainConfig) GetRef() string {
	return valueOr(c.settings.GitHub.Ref, DefaultRef)
}

func (c mainConfig) GetAPIBaseURL() string {
	return strings.TrimSuffix(valueOr(c.settings.GitHub.APIBaseURL, DefaultAPIBaseURL), "/")
}

func (c mainConfig) GetAuthorizeURL() string {
	return valueOr(c.settings.GitHub.AuthorizeURL, github.Endpoint.AuthURL)
}

func (c mainConfig) GetScopes() []string {
	return []string{ScopeUserEmail}
}

// ValidateLogin checks the settings needed to start the OAuth redirect.
func (c mainConfig) ValidateLogin() error {
	return firstMissing(
		setting{ClientIDSetting, c.GetClientID()},
		setting{RedirectURISetting, c.GetRedirectURI()},
	)
}

// ValidateDispatch checks the settings needed to call the dispatch API.
func (c mainConfig) ValidateDispatch() error {
	return firstMissing(
		setting{PATSetting, c.GetPAT()},
		setting{RepoOwnerSetting, c.GetRepoOwner()},
		setting{RepoNameSetting, c.GetRepoName()},
	)
}

type setting struct {
	name  string
	value string
}

func firstMissing(settings ...setting) error {
	for _, s := range settings {
		if IsPlaceholder(s.value) {
			return &MissingSettingError{Setting: s.name}
		}
	}
	return nil
}
