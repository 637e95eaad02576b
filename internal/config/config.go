package config

import "time"

type Config interface {
	EnvConfig
	GitHubConfig
	FormConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// GitHubConfig covers the OAuth App and the workflow that receives submissions.
type GitHubConfig interface {
	GetClientID() string
	GetPAT() string
	GetRepoOwner() string
	GetRepoName() string
	GetRedirectURI() string
	GetWorkflow() string
	GetRef() string
	GetAPIBaseURL() string
	GetAuthorizeURL() string
	GetScopes() []string
	ValidateLogin() error
	ValidateDispatch() error
}

type FormConfig interface {
	GetReauthDelay() time.Duration
}

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionSweepInterval() time.Duration
	GetStateSecret() string
	GetStateTTL() time.Duration
}

// Settings is the raw configuration as read from the config file and the
// environment. Empty values fall back to defaults in the getters.
type Settings struct {
	Port     string `yaml:"port" env:"PORT"`
	AppName  string `yaml:"app_name" env:"APP_NAME"`
	Env      string `yaml:"env" env:"ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	GitHub   GitHubSettings   `yaml:"github" envPrefix:"GITHUB_"`
	Form     FormSettings     `yaml:"form" envPrefix:"FORM_"`
	Security SecuritySettings `yaml:"security" envPrefix:"SECURITY_"`
}

type GitHubSettings struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	PAT          string `yaml:"pat" env:"PAT"`
	RepoOwner    string `yaml:"repo_owner" env:"REPO_OWNER"`
	RepoName     string `yaml:"repo_name" env:"REPO_NAME"`
	RedirectURI  string `yaml:"redirect_uri" env:"REDIRECT_URI"`
	Workflow     string `yaml:"workflow" env:"WORKFLOW"`
	Ref          string `yaml:"ref" env:"REF"`
	APIBaseURL   string `yaml:"api_base_url" env:"API_BASE_URL"`
	AuthorizeURL string `yaml:"authorize_url" env:"AUTHORIZE_URL"`
}

type FormSettings struct {
	ReauthDelay time.Duration `yaml:"reauth_delay" env:"REAUTH_DELAY"`
}

type SecuritySettings struct {
	MaxSessionAge        time.Duration `yaml:"max_session_age" env:"MAX_SESSION_AGE"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval" env:"SESSION_SWEEP_INTERVAL"`
	StateSecret          string        `yaml:"state_secret" env:"STATE_SECRET"`
	StateTTL             time.Duration `yaml:"state_ttl" env:"STATE_TTL"`
}

type mainConfig struct {
	settings Settings
}

var _ Config = mainConfig{}

// New wraps already loaded settings.
func New(settings Settings) Config {
	return mainConfig{settings: settings}
}
