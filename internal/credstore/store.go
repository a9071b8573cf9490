// Package credstore persists per-link credentials and cached collection
// state in an embedded SQLite database. A cache miss is a valid, expected
// outcome everywhere — reads report presence with a bool, and the overall
// flow never fails on one.
package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/tonimelisma/album-go/internal/museum"
)

// walJournalSizeLimit caps the WAL journal at 64 MiB.
const walJournalSizeLimit = 67108864

// Store is the SQLite-backed credential and cache store. Collections are
// keyed by collection key, file listings and tokens by access token —
// the two identifiers have different lifetimes on the server.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// Prepared statements for repeated queries, grouped by domain.
	collectionStmts collectionStatements
	fileStmts       fileStatements
	tokenStmts      tokenStatements
	referralStmts   referralStatements
}

type collectionStatements struct {
	get, upsert, delete *sql.Stmt
}

type fileStatements struct {
	get, upsert, delete *sql.Stmt
}

type tokenStatements struct {
	get, upsert, delete *sql.Stmt
}

type referralStatements struct {
	get, upsert, delete *sql.Stmt
}

// New opens the database at dbPath, applies migrations, and prepares all
// repeated statements. Use ":memory:" for tests.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("opening credential store", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := setPragmas(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger}

	if err := s.prepareStatements(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// setPragmas configures SQLite for WAL mode and safety.
func setPragmas(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	pragmas := []struct {
		sql  string
		desc string
	}{
		{"PRAGMA journal_mode = WAL", "WAL mode"},
		{"PRAGMA synchronous = FULL", "synchronous FULL"},
		{"PRAGMA foreign_keys = ON", "foreign keys"},
		{fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit), "journal size limit"},
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.sql); err != nil {
			return fmt.Errorf("set pragma %s: %w", p.desc, err)
		}

		logger.Debug("pragma set", "pragma", p.desc)
	}

	return nil
}

// prepareStatements prepares all repeated statements, grouped by domain.
func (s *Store) prepareStatements(ctx context.Context) error {
	var err error

	prep := func(query string) *sql.Stmt {
		if err != nil {
			return nil
		}

		var stmt *sql.Stmt

		stmt, err = s.db.PrepareContext(ctx, query)

		return stmt
	}

	s.collectionStmts = collectionStatements{
		get:    prep(`SELECT data FROM collections WHERE collection_key = ?`),
		upsert: prep(`INSERT INTO collections (collection_key, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(collection_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`),
		delete: prep(`DELETE FROM collections WHERE collection_key = ?`),
	}

	s.fileStmts = fileStatements{
		get:    prep(`SELECT data FROM file_listings WHERE access_token = ?`),
		upsert: prep(`INSERT INTO file_listings (access_token, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(access_token) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`),
		delete: prep(`DELETE FROM file_listings WHERE access_token = ?`),
	}

	s.tokenStmts = tokenStatements{
		get:    prep(`SELECT token FROM auth_tokens WHERE access_token = ?`),
		upsert: prep(`INSERT INTO auth_tokens (access_token, token, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(access_token) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`),
		delete: prep(`DELETE FROM auth_tokens WHERE access_token = ?`),
	}

	s.referralStmts = referralStatements{
		get:    prep(`SELECT code FROM referral_codes WHERE access_token = ?`),
		upsert: prep(`INSERT INTO referral_codes (access_token, code) VALUES (?, ?)
			ON CONFLICT(access_token) DO UPDATE SET code = excluded.code`),
		delete: prep(`DELETE FROM referral_codes WHERE access_token = ?`),
	}

	return err
}

// Close closes the database and all prepared statements.
func (s *Store) Close() error {
	return s.db.Close()
}

// Collection returns the cached collection for the given collection key.
func (s *Store) Collection(ctx context.Context, collectionKey string) (*museum.Collection, bool, error) {
	var data []byte

	err := s.collectionStmts.get.QueryRowContext(ctx, collectionKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("credstore: reading collection: %w", err)
	}

	var c museum.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		// A corrupt row is treated as a miss; the next pull rewrites it.
		s.logger.Warn("discarding corrupt cached collection", "error", err)
		return nil, false, nil
	}

	return &c, true, nil
}

// SaveCollection replaces the cached collection wholesale.
func (s *Store) SaveCollection(ctx context.Context, collectionKey string, c *museum.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("credstore: encoding collection: %w", err)
	}

	if _, err := s.collectionStmts.upsert.ExecContext(ctx, collectionKey, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("credstore: saving collection: %w", err)
	}

	return nil
}

// Files returns the cached file listing for the given access token.
func (s *Store) Files(ctx context.Context, accessToken string) ([]museum.File, bool, error) {
	var data []byte

	err := s.fileStmts.get.QueryRowContext(ctx, accessToken).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("credstore: reading files: %w", err)
	}

	var files []museum.File
	if err := json.Unmarshal(data, &files); err != nil {
		s.logger.Warn("discarding corrupt cached file listing", "error", err)
		return nil, false, nil
	}

	return files, true, nil
}

// SaveFiles replaces the cached file listing wholesale.
func (s *Store) SaveFiles(ctx context.Context, accessToken string, files []museum.File) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("credstore: encoding files: %w", err)
	}

	if _, err := s.fileStmts.upsert.ExecContext(ctx, accessToken, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("credstore: saving files: %w", err)
	}

	return nil
}

// ClearFiles removes the cached file listing for the given access token.
func (s *Store) ClearFiles(ctx context.Context, accessToken string) error {
	if _, err := s.fileStmts.delete.ExecContext(ctx, accessToken); err != nil {
		return fmt.Errorf("credstore: clearing files: %w", err)
	}

	return nil
}

// AuthToken returns the cached authorization token for the given access token.
func (s *Store) AuthToken(ctx context.Context, accessToken string) (string, bool, error) {
	var token string

	err := s.tokenStmts.get.QueryRowContext(ctx, accessToken).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("credstore: reading auth token: %w", err)
	}

	return token, true, nil
}

// SaveAuthToken stores the authorization token issued after password
// verification.
func (s *Store) SaveAuthToken(ctx context.Context, accessToken, token string) error {
	if _, err := s.tokenStmts.upsert.ExecContext(ctx, accessToken, token, time.Now().Unix()); err != nil {
		return fmt.Errorf("credstore: saving auth token: %w", err)
	}

	return nil
}

// ClearAuthToken removes the cached authorization token. Idempotent.
func (s *Store) ClearAuthToken(ctx context.Context, accessToken string) error {
	if _, err := s.tokenStmts.delete.ExecContext(ctx, accessToken); err != nil {
		return fmt.Errorf("credstore: clearing auth token: %w", err)
	}

	return nil
}

// ReferralCode returns the cached referral code for the given access token.
func (s *Store) ReferralCode(ctx context.Context, accessToken string) (string, bool, error) {
	var code string

	err := s.referralStmts.get.QueryRowContext(ctx, accessToken).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("credstore: reading referral code: %w", err)
	}

	return code, true, nil
}

// SaveReferralCode stores the referral code returned by the last pull.
func (s *Store) SaveReferralCode(ctx context.Context, accessToken, code string) error {
	if _, err := s.referralStmts.upsert.ExecContext(ctx, accessToken, code); err != nil {
		return fmt.Errorf("credstore: saving referral code: %w", err)
	}

	return nil
}

// ClearAll purges every cached row for a link: collection, file listing,
// auth token, and referral code. Used when the server confirms the link
// has been revoked.
func (s *Store) ClearAll(ctx context.Context, accessToken, collectionKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("credstore: begin purge: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, step := range []struct {
		stmt *sql.Stmt
		arg  string
	}{
		{s.collectionStmts.delete, collectionKey},
		{s.fileStmts.delete, accessToken},
		{s.tokenStmts.delete, accessToken},
		{s.referralStmts.delete, accessToken},
	} {
		if _, err := tx.StmtContext(ctx, step.stmt).ExecContext(ctx, step.arg); err != nil {
			return fmt.Errorf("credstore: purging link state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("credstore: commit purge: %w", err)
	}

	s.logger.Info("purged all cached state for link")

	return nil
}
