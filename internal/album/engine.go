package album

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonimelisma/album-go/internal/museum"
	"github.com/tonimelisma/album-go/internal/sharelink"
)

// Remote is the subset of the museum client the engine depends on.
// Defined at the consumer per Go convention "accept interfaces, return
// structs"; museum.Client is the real implementation.
type Remote interface {
	CollectionInfo(ctx context.Context, creds museum.Credentials) (*museum.Collection, string, error)
	PullFiles(ctx context.Context, creds museum.Credentials, base []museum.File, onBatch func([]museum.File)) ([]museum.File, error)
	VerifyPassword(ctx context.Context, creds museum.Credentials, passHash string) (string, error)
}

// Store is the local credential and cache store the engine depends on.
// credstore.Store is the real implementation. Cache reads are best-effort:
// the engine logs read failures and proceeds as if on a miss.
type Store interface {
	Collection(ctx context.Context, collectionKey string) (*museum.Collection, bool, error)
	SaveCollection(ctx context.Context, collectionKey string, c *museum.Collection) error
	Files(ctx context.Context, accessToken string) ([]museum.File, bool, error)
	SaveFiles(ctx context.Context, accessToken string, files []museum.File) error
	ClearFiles(ctx context.Context, accessToken string) error
	AuthToken(ctx context.Context, accessToken string) (string, bool, error)
	SaveAuthToken(ctx context.Context, accessToken, token string) error
	ClearAuthToken(ctx context.Context, accessToken string) error
	ReferralCode(ctx context.Context, accessToken string) (string, bool, error)
	SaveReferralCode(ctx context.Context, accessToken, code string) error
	ClearAll(ctx context.Context, accessToken, collectionKey string) error
}

// CredentialsObserver is notified whenever the engine's credentials change,
// so collaborators (the download manager) never share mutable credential
// state with the engine.
type CredentialsObserver interface {
	SetCredentials(creds museum.Credentials)
}

// Engine owns the pull state machine for one share link.
//
// Each Pull is internally sequential (metadata before listing) and snapshots
// the credentials at entry; state transitions happen under the engine mutex,
// so rapid re-pulls cannot corrupt state, though callers should debounce.
type Engine struct {
	remote Remote
	store  Store
	link   *sharelink.ShareLink
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	creds          museum.Credentials
	collection     *museum.Collection
	files          []museum.File
	referralCode   string
	failureMessage string
	observers      []CredentialsObserver
}

// NewEngine creates an engine for the given resolved share link.
func NewEngine(remote Remote, store Store, link *sharelink.ShareLink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		remote: remote,
		store:  store,
		link:   link,
		logger: logger,
		state:  StateUninitialized,
		creds:  museum.Credentials{AccessToken: link.AccessToken},
	}
}

// AddCredentialsObserver registers an observer and immediately sends it the
// current credentials.
func (e *Engine) AddCredentialsObserver(obs CredentialsObserver) {
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	creds := e.creds
	e.mu.Unlock()

	obs.SetCredentials(creds)
}

// setCredentials installs a new credentials value and notifies observers.
func (e *Engine) setCredentials(creds museum.Credentials) {
	e.mu.Lock()
	e.creds = creds
	observers := append([]CredentialsObserver(nil), e.observers...)
	e.mu.Unlock()

	for _, obs := range observers {
		obs.SetCredentials(creds)
	}
}

// Restore seeds the engine from the local cache: collection snapshot, file
// listing, referral code, and any authorization token from a previous
// session. An expired cached token is discarded up front so the first pull
// goes straight to the password prompt instead of bouncing off a 401.
// Cache misses and read failures leave the engine in its zero state.
func (e *Engine) Restore(ctx context.Context) {
	collection, ok, err := e.store.Collection(ctx, e.link.KeyID())
	if err != nil {
		e.logger.Warn("restoring cached collection failed", "error", err.Error())
	}

	if !ok {
		return
	}

	creds := museum.Credentials{AccessToken: e.link.AccessToken}

	token, haveToken, err := e.store.AuthToken(ctx, e.link.AccessToken)
	if err != nil {
		e.logger.Warn("restoring cached auth token failed", "error", err.Error())
	}

	if haveToken {
		if authTokenExpired(token) {
			e.logger.Info("discarding expired cached auth token")

			if err := e.store.ClearAuthToken(ctx, e.link.AccessToken); err != nil {
				e.logger.Warn("clearing expired auth token failed", "error", err.Error())
			}
		} else {
			creds.AccessTokenJWT = token
		}
	}

	files, _, err := e.store.Files(ctx, e.link.AccessToken)
	if err != nil {
		e.logger.Warn("restoring cached files failed", "error", err.Error())
	}

	referral, _, err := e.store.ReferralCode(ctx, e.link.AccessToken)
	if err != nil {
		e.logger.Warn("restoring cached referral code failed", "error", err.Error())
	}

	e.mu.Lock()
	e.collection = collection
	e.files = sortFilesForCollection(files, collection)
	e.referralCode = referral
	e.mu.Unlock()

	e.setCredentials(creds)

	e.logger.Info("restored cached album state",
		slog.Int64("collection_id", collection.ID),
		slog.Int("file_count", len(files)),
		slog.Bool("have_auth_token", creds.AccessTokenJWT != ""),
	)
}

// Pull fetches the collection metadata and file listing from remote,
// reconciling against the local cache and driving the state machine.
//
// Outer failures are classified in one place: unauthorized and gone mean
// the link itself is dead (purge cache, Expired), rate-limited purges and
// parks in RateLimited, and anything else is a transient failure that
// leaves the cache untouched. The returned error is non-nil only for the
// transient case — terminal outcomes are reported via state, since there
// is nothing left for the caller to retry.
func (e *Engine) Pull(ctx context.Context) error {
	e.mu.Lock()
	creds := e.creds
	e.state = StateLoading
	e.mu.Unlock()

	e.logger.Info("starting album pull",
		slog.Bool("have_auth_token", creds.AccessTokenJWT != ""),
	)

	err := e.pull(ctx, creds)
	if err == nil {
		return nil
	}

	switch classifyPullFailure(err) {
	case failExpired:
		e.logger.Warn("link no longer valid, purging cache", "error", err.Error())
		e.purge(ctx)
		e.transition(StateExpired, msgLinkExpired)

		return nil

	case failRateLimited:
		e.logger.Warn("link rate limited, purging cache", "error", err.Error())
		e.purge(ctx)
		e.transition(StateRateLimited, msgRateLimited)

		return nil

	default:
		// Possibly a transient network condition; keep the cache so the
		// previously pulled album stays usable.
		e.logger.Error("album pull failed", "error", err.Error())
		e.transition(StateTransientFailure, "")

		return err
	}
}

// pull runs the two-phase fetch: collection metadata, then the file
// listing. Only a listing-phase unauthorized is handled here (stale
// password token); everything else propagates to Pull for classification.
func (e *Engine) pull(ctx context.Context, creds museum.Credentials) error {
	collection, referral, err := e.remote.CollectionInfo(ctx, creds)
	if err != nil {
		return fmt.Errorf("pulling collection: %w", err)
	}

	e.mu.Lock()
	e.collection = collection
	e.referralCode = referral
	e.failureMessage = ""
	e.mu.Unlock()

	if err := e.store.SaveCollection(ctx, e.link.KeyID(), collection); err != nil {
		e.logger.Warn("caching collection failed", "error", err.Error())
	}

	if err := e.store.SaveReferralCode(ctx, creds.AccessToken, referral); err != nil {
		e.logger.Warn("caching referral code failed", "error", err.Error())
	}

	passwordProtected := collection.IsPasswordProtected()

	// The sharer disabled password protection: the cached authorization
	// token must not be retained, in memory or on disk.
	if !passwordProtected && creds.AccessTokenJWT != "" {
		e.logger.Info("password protection disabled by sharer, clearing auth token")

		creds.AccessTokenJWT = ""
		e.setCredentials(creds)

		if err := e.store.ClearAuthToken(ctx, creds.AccessToken); err != nil {
			e.logger.Warn("clearing auth token failed", "error", err.Error())
		}
	}

	if passwordProtected && creds.AccessTokenJWT == "" {
		// Don't attempt the listing pull — it would fail. File data cached
		// under this access token is unreadable to us until a password is
		// verified, so drop it.
		if err := e.store.ClearFiles(ctx, creds.AccessToken); err != nil {
			e.logger.Warn("clearing file cache failed", "error", err.Error())
		}

		e.mu.Lock()
		e.files = nil
		e.state = StatePasswordRequired
		e.mu.Unlock()

		return nil
	}

	base, _, err := e.store.Files(ctx, creds.AccessToken)
	if err != nil {
		e.logger.Warn("reading cached files failed", "error", err.Error())
	}

	files, err := e.remote.PullFiles(ctx, creds, base, func(batch []museum.File) {
		sorted := sortFilesForCollection(batch, collection)
		e.mu.Lock()
		e.files = sorted
		e.mu.Unlock()
	})
	if err != nil {
		// The collection pull succeeded a moment ago, so the access token
		// is almost certainly still valid. An unauthorized here means the
		// authorization token went stale — the sharer changed the password.
		// Best-effort heuristic, not a guarantee, but the benign failure
		// mode is an extra password prompt.
		if errors.Is(err, museum.ErrUnauthorized) {
			e.logger.Info("auth token rejected on listing pull, re-prompting for password")

			creds.AccessTokenJWT = ""
			e.setCredentials(creds)

			if err := e.store.ClearAuthToken(ctx, creds.AccessToken); err != nil {
				e.logger.Warn("clearing auth token failed", "error", err.Error())
			}

			e.mu.Lock()
			e.state = StatePasswordRequired
			e.mu.Unlock()

			return nil
		}

		return fmt.Errorf("pulling files: %w", err)
	}

	sorted := sortFilesForCollection(files, collection)

	if err := e.store.SaveFiles(ctx, creds.AccessToken, sorted); err != nil {
		e.logger.Warn("caching files failed", "error", err.Error())
	}

	e.mu.Lock()
	e.files = sorted
	e.state = StateReady
	e.mu.Unlock()

	e.logger.Info("album pull complete",
		slog.Int64("collection_id", collection.ID),
		slog.Int("file_count", len(sorted)),
	)

	return nil
}

// SubmitPassword derives the password hash per the public URL's key
// derivation parameters, verifies it with the server, persists the issued
// authorization token, and re-pulls. Verification alone never completes
// the flow: the fresh pull fetches the now-accessible listing.
func (e *Engine) SubmitPassword(ctx context.Context, password string) error {
	e.mu.Lock()
	collection := e.collection
	creds := e.creds
	e.mu.Unlock()

	if collection == nil {
		return errors.New("album: no collection loaded")
	}

	publicURL, ok := collection.PublicURLConfig()
	if !ok {
		return errors.New("album: collection has no public URL configuration")
	}

	passHash, err := derivePasswordHash(password, publicURL)
	if err != nil {
		return fmt.Errorf("album: deriving password hash: %w", err)
	}

	token, err := e.remote.VerifyPassword(ctx, creds, passHash)
	if err != nil {
		if errors.Is(err, museum.ErrUnauthorized) {
			return ErrInvalidPassword
		}

		return fmt.Errorf("album: verifying password: %w", err)
	}

	creds.AccessTokenJWT = token
	e.setCredentials(creds)

	if err := e.store.SaveAuthToken(ctx, creds.AccessToken, token); err != nil {
		e.logger.Warn("persisting auth token failed", "error", err.Error())
	}

	return e.Pull(ctx)
}

// OnUploadFile folds a freshly uploaded file into the listing, keeping it
// in sort position per the collection's ordering preference.
func (e *Engine) OnUploadFile(f museum.File) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.files = sortFilesForCollection(append(e.files, f), e.collection)
}

// purge clears all local state for the link after the server confirmed it
// is no longer valid.
func (e *Engine) purge(ctx context.Context) {
	if err := e.store.ClearAll(ctx, e.link.AccessToken, e.link.KeyID()); err != nil {
		e.logger.Warn("purging link cache failed", "error", err.Error())
	}

	e.mu.Lock()
	e.collection = nil
	e.files = nil
	e.mu.Unlock()
}

// transition installs a new state with an optional human-readable reason.
func (e *Engine) transition(state State, message string) {
	e.mu.Lock()
	e.state = state
	e.failureMessage = message
	e.mu.Unlock()
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Collection returns the current collection snapshot, or nil.
func (e *Engine) Collection() *museum.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.collection
}

// Files returns the current file listing snapshot.
func (e *Engine) Files() []museum.File {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]museum.File(nil), e.files...)
}

// ReferralCode returns the referral code from the last pull or restore.
func (e *Engine) ReferralCode() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.referralCode
}

// Credentials returns the current credentials value.
func (e *Engine) Credentials() museum.Credentials {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.creds
}

// FailureMessage returns the reason attached to a terminal state, empty
// otherwise.
func (e *Engine) FailureMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.failureMessage
}

// failureClass is the outer classification of a pull failure.
type failureClass int

const (
	failTransient failureClass = iota
	failExpired
	failRateLimited
)

// classifyPullFailure maps a pull error to its failure class. Centralized
// so the purge and retry policy lives in one spot: unauthorized or gone on
// the metadata pull means the link itself is dead; rate limiting is its
// own terminal bucket; everything else must be treated as transient so a
// flaky network is never confused with a revoked link.
func classifyPullFailure(err error) failureClass {
	switch {
	case errors.Is(err, museum.ErrUnauthorized), errors.Is(err, museum.ErrGone):
		return failExpired
	case errors.Is(err, museum.ErrRateLimited):
		return failRateLimited
	default:
		return failTransient
	}
}
