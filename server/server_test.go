package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-meeting-form/controller"
	"github.com/jrsteele09/go-meeting-form/dispatch"
	"github.com/jrsteele09/go-meeting-form/internal/config"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
	"github.com/jrsteele09/go-meeting-form/meeting"
	"github.com/jrsteele09/go-meeting-form/oauthstate"
	"github.com/jrsteele09/go-meeting-form/server"
	"github.com/jrsteele09/go-meeting-form/session"
	"github.com/stretchr/testify/require"
)

const (
	loginMarker = `id="loginSection"`
	formMarker  = `id="formSection"`
)

type dispatchCall struct {
	code   string
	record meeting.Record
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
	panic bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, code string, record meeting.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{code: code, record: record})
	if f.panic {
		panic("dispatcher exploded")
	}
	return f.err
}

func (f *fakeDispatcher) Calls() []dispatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatchCall(nil), f.calls...)
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
}

func testSettings() config.Settings {
	return config.Settings{
		Env: "TEST",
		GitHub: config.GitHubSettings{
			ClientID:    "client-123",
			PAT:         "ghp_token",
			RepoOwner:   "owner",
			RepoName:    "repo",
			RedirectURI: "http://localhost:8080/",
		},
	}
}

func newTestEnv(t *testing.T, settings config.Settings, dispatcher dispatch.Dispatcher) *testEnv {
	t.Helper()
	return newTestEnvWithStates(t, settings, dispatcher, nil)
}

func newTestEnvWithStates(t *testing.T, settings config.Settings, dispatcher dispatch.Dispatcher, states controller.StateIssuer) *testEnv {
	t.Helper()

	cfg := config.New(settings)
	srv, err := server.New(cfg, controller.New(cfg, states), dispatcher, session.NewInMemoryRepo())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return (&testEnv{srv: ts}).newBrowser(t)
}

// newBrowser returns a client for the same server with its own cookie jar.
func (e *testEnv) newBrowser(t *testing.T) *testEnv {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{srv: e.srv, client: client}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (e *testEnv) login(t *testing.T, code string) {
	t.Helper()
	resp, _ := e.get(t, "/?code="+url.QueryEscape(code))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func syncForm() url.Values {
	return url.Values{
		"title":        {"Sync"},
		"date":         {"2024-01-01"},
		"participants": {"A,B"},
		"topics":       {"X"},
		"decisions":    {"Y"},
		"actions":      {"Z"},
		"notes":        {""},
	}
}

func TestPageLoad(t *testing.T) {
	t.Run("fresh visitor sees login", func(t *testing.T) {
		env := newTestEnv(t, testSettings(), &fakeDispatcher{})
		resp, body := env.get(t, "/")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, loginMarker)
		require.NotContains(t, body, formMarker)
	})

	t.Run("code is captured and stripped", func(t *testing.T) {
		env := newTestEnv(t, testSettings(), &fakeDispatcher{})
		env.login(t, "abc123")

		_, body := env.get(t, "/")
		require.Contains(t, body, formMarker)
		require.NotContains(t, body, loginMarker)
		require.Contains(t, body, `value="`)
	})

	t.Run("authorization error", func(t *testing.T) {
		env := newTestEnv(t, testSettings(), &fakeDispatcher{})
		resp, _ := env.get(t, "/?error=access_denied&error_description=denied+by+user")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		_, body := env.get(t, "/")
		require.Contains(t, body, loginMarker)
		require.Contains(t, body, "Authorization failed: denied by user")
	})
}

func TestLogin(t *testing.T) {
	t.Run("redirects to github", func(t *testing.T) {
		env := newTestEnv(t, testSettings(), &fakeDispatcher{})
		resp, _ := env.post(t, "/auth/login", nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "https", loc.Scheme)
		require.Equal(t, "github.com", loc.Host)
		require.Equal(t, "/login/oauth/authorize", loc.Path)
		require.Equal(t, "client-123", loc.Query().Get("client_id"))
		require.Equal(t, "http://localhost:8080/", loc.Query().Get("redirect_uri"))
		require.Equal(t, "user:email", loc.Query().Get("scope"))
	})

	t.Run("placeholder client id", func(t *testing.T) {
		settings := testSettings()
		settings.GitHub.ClientID = config.PlaceholderClientID
		env := newTestEnv(t, settings, &fakeDispatcher{})

		resp, _ := env.post(t, "/auth/login", nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))

		_, body := env.get(t, "/")
		require.Contains(t, body, "Please configure GITHUB_CLIENT_ID.")
		require.Contains(t, body, loginMarker)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, testSettings(), &fakeDispatcher{})
	env.login(t, "abc123")

	resp, _ := env.post(t, "/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := env.get(t, "/")
	require.Contains(t, body, loginMarker)
	require.Contains(t, body, "Logged out successfully")
}

func TestSubmitSuccess(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	env := newTestEnv(t, testSettings(), dispatcher)
	env.login(t, "abc123")

	resp, body := env.post(t, "/submit", syncForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Meeting record submitted successfully!")
	require.Contains(t, body, formMarker)
	require.Contains(t, body, `url=/reauth`)
	require.NotContains(t, body, `value="Sync"`)
	require.NotContains(t, body, " disabled")

	calls := dispatcher.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "abc123", calls[0].code)
	require.Equal(t, meeting.FromForm(syncForm()), calls[0].record)

	// One-shot credential: a second submit needs a new login
	_, body = env.post(t, "/submit", syncForm())
	require.Contains(t, body, "Authentication expired. Please login again.")
	require.Contains(t, body, loginMarker)
	require.Len(t, dispatcher.Calls(), 1)
}

func TestReauthAfterSuccess(t *testing.T) {
	env := newTestEnv(t, testSettings(), &fakeDispatcher{})
	env.login(t, "abc123")
	env.post(t, "/submit", syncForm())

	resp, _ := env.get(t, "/reauth")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := env.get(t, "/")
	require.Contains(t, body, loginMarker)
	require.Contains(t, body, "Please re-authenticate for your next submission.")
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"workflow missing", &dispatch.StatusError{StatusCode: 404}, "Workflow file not found"},
		{"bad token", &dispatch.StatusError{StatusCode: 401}, "Authentication failed"},
		{"other status", &dispatch.StatusError{StatusCode: 500}, "Failed to submit meeting (500)"},
		{"network", fmt.Errorf("%w: dial tcp: connection refused", errors.ErrTransport), "Network error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{err: tt.err}
			env := newTestEnv(t, testSettings(), dispatcher)
			env.login(t, "abc123")

			resp, body := env.post(t, "/submit", syncForm())
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Contains(t, body, tt.message)
			require.Contains(t, body, formMarker)
			require.Contains(t, body, `value="Sync"`)
			require.NotContains(t, body, " disabled")

			// Credential kept: the user can resubmit
			env.post(t, "/submit", syncForm())
			calls := dispatcher.Calls()
			require.Len(t, calls, 2)
			require.Equal(t, "abc123", calls[1].code)
		})
	}
}

func TestSubmitPlaceholderToken(t *testing.T) {
	settings := testSettings()
	settings.GitHub.PAT = config.PlaceholderPAT
	dispatcher := &fakeDispatcher{}
	env := newTestEnv(t, settings, dispatcher)
	env.login(t, "abc123")

	_, body := env.post(t, "/submit", syncForm())
	require.Contains(t, body, "Please configure GITHUB_PAT.")
	require.Empty(t, dispatcher.Calls())
}

func TestSubmitPanicReenablesSubmit(t *testing.T) {
	dispatcher := &fakeDispatcher{panic: true}
	env := newTestEnv(t, testSettings(), dispatcher)
	env.login(t, "abc123")

	resp, _ := env.post(t, "/submit", syncForm())
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	_, body := env.get(t, "/")
	require.Contains(t, body, formMarker)
	require.NotContains(t, body, " disabled")
	require.Contains(t, body, "Failed to submit meeting")
}

func TestSubmitThroughGitHubClient(t *testing.T) {
	var (
		got      dispatch.Request
		gotPath  string
		gotToken string
	)
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer github.Close()

	client := dispatch.NewClient(dispatch.Config{
		Owner:    "owner",
		Repo:     "repo",
		Workflow: "submit_meeting.yml",
		Ref:      "main",
		Token:    "ghp_token",
		BaseURL:  github.URL,
	})
	env := newTestEnv(t, testSettings(), client)
	env.login(t, "abc123")

	_, body := env.post(t, "/submit", syncForm())
	require.Contains(t, body, "Meeting record submitted successfully!")
	require.Equal(t, "/repos/owner/repo/actions/workflows/submit_meeting.yml/dispatches", gotPath)
	require.Equal(t, "Bearer ghp_token", gotToken)
	require.Equal(t, "abc123", got.Inputs.OAuthCode)
	require.True(t, strings.HasPrefix(got.Inputs.MeetingPayload, `{"title":"Sync","date":"2024-01-01"`))
}

func TestStaticCSS(t *testing.T) {
	env := newTestEnv(t, testSettings(), &fakeDispatcher{})
	resp, body := env.get(t, "/css/form.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css"))
	require.Contains(t, body, ".alert")
}

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	codes     []string
}

func newBlockingDispatcher() *blockingDispatcher {
	return &blockingDispatcher{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingDispatcher) Dispatch(_ context.Context, code string, _ meeting.Record) error {
	b.mu.Lock()
	b.active++
	b.maxActive = max(b.maxActive, b.active)
	b.codes = append(b.codes, code)
	b.mu.Unlock()

	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return nil
}

func (b *blockingDispatcher) stats() (int, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxActive, append([]string(nil), b.codes...)
}

func TestSingleSubmissionAcrossLoginLanding(t *testing.T) {
	dispatcher := newBlockingDispatcher()
	env := newTestEnv(t, testSettings(), dispatcher)
	env.login(t, "first")

	done := make(chan error, 1)
	go func() {
		resp, err := env.client.PostForm(env.srv.URL+"/submit", syncForm())
		if err == nil {
			resp.Body.Close()
		}
		done <- err
	}()
	<-dispatcher.started

	// A login completes in another tab while the first dispatch is held
	env.login(t, "second")
	_, body := env.get(t, "/")
	require.Contains(t, body, formMarker)
	require.Contains(t, body, " disabled")

	_, body = env.post(t, "/submit", syncForm())
	require.Contains(t, body, controller.MsgSubmitInProgress)

	close(dispatcher.release)
	require.NoError(t, <-done)

	maxActive, codes := dispatcher.stats()
	require.Equal(t, 1, maxActive)
	require.Equal(t, []string{"first"}, codes)

	// The code that landed mid-flight was never sent, so it is still usable
	_, body = env.get(t, "/")
	require.Contains(t, body, formMarker)
	require.NotContains(t, body, "url=/reauth")
	require.NotContains(t, body, " disabled")

	env.post(t, "/submit", syncForm())
	_, codes = dispatcher.stats()
	require.Equal(t, []string{"first", "second"}, codes)
}

func TestLoginStateBoundToSession(t *testing.T) {
	issuer, err := oauthstate.NewIssuer("secret", 10*time.Minute)
	require.NoError(t, err)
	env := newTestEnvWithStates(t, testSettings(), &fakeDispatcher{}, issuer)

	startLogin := func(t *testing.T, browser *testEnv) string {
		t.Helper()
		resp, _ := browser.post(t, "/auth/login", nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := loc.Query().Get("state")
		require.NotEmpty(t, state)
		return state
	}
	land := func(t *testing.T, browser *testEnv, code, state string) string {
		t.Helper()
		resp, _ := browser.get(t, "/?code="+url.QueryEscape(code)+"&state="+url.QueryEscape(state))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		_, body := browser.get(t, "/")
		return body
	}

	t.Run("own state accepted once", func(t *testing.T) {
		browser := env.newBrowser(t)
		state := startLogin(t, browser)

		body := land(t, browser, "own-code", state)
		require.Contains(t, body, formMarker)

		browser.post(t, "/auth/logout", nil)
		body = land(t, browser, "replayed-code", state)
		require.Contains(t, body, loginMarker)
		require.Contains(t, body, controller.MsgStateInvalid)
	})

	t.Run("state from another browser rejected", func(t *testing.T) {
		attacker := env.newBrowser(t)
		victim := env.newBrowser(t)
		state := startLogin(t, attacker)

		for range 2 {
			body := land(t, victim, "attacker-code", state)
			require.Contains(t, body, loginMarker)
			require.NotContains(t, body, formMarker)
		}
	})
}

func TestExpiredSessionStartsOver(t *testing.T) {
	env := newTestEnv(t, testSettings(), &fakeDispatcher{})
	env.login(t, "abc123")

	later := time.Now().Add(13 * time.Hour)
	server.NowTimeFunc = func() time.Time { return later }
	t.Cleanup(func() { server.NowTimeFunc = time.Now })

	_, body := env.get(t, "/")
	require.Contains(t, body, loginMarker)
	require.NotContains(t, body, formMarker)
}
