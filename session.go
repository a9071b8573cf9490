package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tonimelisma/album-go/internal/album"
	"github.com/tonimelisma/album-go/internal/config"
	"github.com/tonimelisma/album-go/internal/credstore"
	"github.com/tonimelisma/album-go/internal/museum"
	"github.com/tonimelisma/album-go/internal/sharelink"
)

// maxPasswordAttempts bounds interactive password retries.
const maxPasswordAttempts = 3

// session wires a resolved share link to the engine and its collaborators
// for the duration of one command.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *credstore.Store
	client   *museum.Client
	engine   *album.Engine
	progress *album.ProgressTracker
	link     *sharelink.ShareLink
}

// openSession resolves the share URL, opens the cache store, and builds
// the engine with its credentials-observing downloader.
func openSession(rawURL string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := buildLogger(cfg)

	link, err := sharelink.Resolve(rawURL)
	if err != nil {
		if errors.Is(err, sharelink.ErrNotShareLink) {
			return nil, fmt.Errorf("%s is not an album share link", rawURL)
		}

		// Malformed links abort without further explanation — there is no
		// album state worth rendering for half a link.
		return nil, err
	}

	store, err := credstore.New(cfg.CachePath, logger)
	if err != nil {
		return nil, err
	}

	client := museum.NewClient(cfg.APIBaseURL, defaultHTTPClient(), logger)
	engine := album.NewEngine(client, store, link, logger)

	return &session{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		engine:   engine,
		progress: album.NewProgressTracker(),
		link:     link,
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing cache store failed", "error", err.Error())
	}
}

// pullWithPassword restores cached state, pulls, and walks the password
// flow as long as the engine asks for one. passwordFlag, when non-empty,
// is tried first; after that the user is prompted on the terminal.
func (s *session) pullWithPassword(ctx context.Context, passwordFlag string) error {
	s.engine.Restore(ctx)

	if err := s.engine.Pull(ctx); err != nil {
		return s.transientFailure(err)
	}

	attempts := 0

	for s.engine.State() == album.StatePasswordRequired {
		password := passwordFlag
		passwordFlag = ""

		if password == "" {
			if attempts >= maxPasswordAttempts {
				return errors.New("too many password attempts")
			}

			var err error

			password, err = promptPassword()
			if err != nil {
				return err
			}
		}

		attempts++

		err := s.engine.SubmitPassword(ctx, password)

		switch {
		case errors.Is(err, album.ErrInvalidPassword):
			// Field-level failure: re-prompt, nothing else changes.
			fmt.Fprintln(os.Stderr, "incorrect password, try again")
		case err != nil:
			return s.transientFailure(err)
		}
	}

	switch s.engine.State() {
	case album.StateExpired, album.StateRateLimited:
		return errors.New(s.engine.FailureMessage())
	default:
		return nil
	}
}

// transientFailure reports a retryable error, noting when cached data
// remains usable.
func (s *session) transientFailure(err error) error {
	if len(s.engine.Files()) > 0 {
		return fmt.Errorf("%w (the previously cached album is still available)", err)
	}

	return err
}

// promptPassword reads a password line from stdin.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "This album is password protected. Password: ")

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// newCoordinator builds a selection/download coordinator whose downloader
// tracks the engine's credentials.
func (s *session) newCoordinator() *album.Coordinator {
	downloader := album.NewRemoteDownloader(s.client)
	s.engine.AddCredentialsObserver(downloader)

	return album.NewCoordinator(s.engine, downloader, s.progress, s.cfg.DownloadWorkers, s.logger)
}
