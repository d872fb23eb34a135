package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/andrebq/keybox/internal/logutil"
)

type (
	// SQLiteStore persists sessions so they survive restarts.
	SQLiteStore struct {
		conn *sql.DB
		ttl  time.Duration
	}
)

// OpenSQLiteStore loads (creating if needed) the session database under
// dir. Sessions expire ttl after creation, pass zero for DefaultTTL.
func OpenSQLiteStore(ctx context.Context, dir string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	file := filepath.Join(dir, "sessions.db")
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store sessions, cause %w", dir, err)
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", file))
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping session database %v, cause %v", file, err)
	}
	s := &SQLiteStore{conn: conn, ttl: ttl}
	err = s.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init session database at %v, cause %v", dir, err)
	}
	return s, nil
}

func (s *SQLiteStore) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	_, err = s.conn.ExecContext(ctx, `insert into sessions(token, token_hash64, user_id, created_at, expires_at) values (?, ?, ?, ?, ?)`,
		token, tokenHash(token), userID, now.Unix(), now.Add(s.ttl).Unix())
	if err != nil {
		return "", fmt.Errorf("unable to store session, cause %w", err)
	}
	return token, nil
}

// Validate looks the token up and lazily evicts it when expired.
func (s *SQLiteStore) Validate(ctx context.Context, token string) (int64, bool, error) {
	var userID, expiresAt int64
	err := s.conn.QueryRowContext(ctx, `select user_id, expires_at from sessions where token_hash64 = ? and token = ?`,
		tokenHash(token), token).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("unable to load session, cause %w", err)
	}
	if time.Now().UTC().Unix() >= expiresAt {
		// expired sessions behave exactly like absent ones
		err = s.Destroy(ctx, token)
		if err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	return userID, true, nil
}

func (s *SQLiteStore) Destroy(ctx context.Context, token string) error {
	_, err := s.conn.ExecContext(ctx, `delete from sessions where token_hash64 = ? and token = ?`, tokenHash(token), token)
	if err != nil {
		return fmt.Errorf("unable to destroy session, cause %w", err)
	}
	return nil
}

// Sweep removes every expired session and returns how many went away.
// Validate already evicts lazily, sweeping just keeps the table small.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `delete from sessions where expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("unable to sweep expired sessions, cause %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to count swept sessions, cause %w", err)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. It needs no
// coordination with in-flight requests, eventual cleanup is enough.
func (s *SQLiteStore) RunSweeper(ctx context.Context, interval time.Duration) {
	log := logutil.GetOrDefault(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Unable to sweep expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("sessions", n).Msg("Swept expired sessions")
			}
		}
	}
}

func tokenHash(token string) int64 {
	return int64(xxhash.Sum64String(token))
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists sessions(
			token text not null primary key,
			token_hash64 integer not null,
			user_id integer not null,
			created_at integer not null,
			expires_at integer not null
		)`,
		`create index if not exists idx_sessions_token_hash64
			on sessions(token_hash64)
		`,
	} {
		_, err := s.conn.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
