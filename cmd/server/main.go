package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-meeting-form/controller"
	"github.com/jrsteele09/go-meeting-form/dispatch"
	"github.com/jrsteele09/go-meeting-form/internal/config"
	"github.com/jrsteele09/go-meeting-form/oauthstate"
	"github.com/jrsteele09/go-meeting-form/server"
	"github.com/jrsteele09/go-meeting-form/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())
	warnMissingSettings(c)

	states, err := oauthstate.NewIssuer(c.GetStateSecret(), c.GetStateTTL())
	if err != nil {
		return err
	}
	sessions := session.NewInMemoryRepo()
	dispatcher := dispatch.NewClient(dispatch.Config{
		Owner:    c.GetRepoOwner(),
		Repo:     c.GetRepoName(),
		Workflow: c.GetWorkflow(),
		Ref:      c.GetRef(),
		Token:    c.GetPAT(),
		BaseURL:  c.GetAPIBaseURL(),
	})

	handler, err := server.New(c, controller.New(c, states), dispatcher, sessions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepSessions(ctx, sessions, c)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// warnMissingSettings reports placeholders at startup. They are not fatal:
// the form itself shows the configuration error when login or submit is tried.
func warnMissingSettings(c config.GitHubConfig) {
	for _, err := range []error{c.ValidateLogin(), c.ValidateDispatch()} {
		if err != nil {
			log.Warn().Err(err).Msg("GitHub settings incomplete")
		}
	}
}

func sweepSessions(ctx context.Context, sessions session.Repo, c config.SecurityConfig) {
	ticker := time.NewTicker(c.GetSessionSweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := sessions.Sweep(now.Add(-c.GetMaxSessionAge())); removed > 0 {
				log.Debug().Int("removed", removed).Msg("swept idle sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
