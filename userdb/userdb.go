// Package userdb stores user credentials in a sqlite database.
//
// The database never contains a plaintext password, only the encoded
// output of whatever hasher the caller used (see the auth package).
package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type (
	DB struct {
		conn *sql.DB
	}

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
	}
)

func openUserDatabase(ctx context.Context, dir string) (*sql.DB, error) {
	file := filepath.Join(dir, "users.db")
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store user database, cause %w", dir, err)
	}
	// busy timeout keeps concurrent writers queueing instead of
	// failing, the unique constraints do the actual arbitration
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", file)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping user database %v, cause %v", file, err)
	}
	return conn, nil
}

// Open loads (creating if needed) the user database stored under dir.
func Open(ctx context.Context, dir string) (*DB, error) {
	conn, err := openUserDatabase(ctx, dir)
	if err != nil {
		return nil, err
	}
	db := &DB{conn: conn}
	err = db.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init user database at %v, cause %v", dir, err)
	}
	return db, nil
}

// Create inserts a new user and returns it with its allocated id.
//
// Uniqueness of username and email is enforced by the database itself,
// so concurrent calls racing on the same values cannot both win. The
// loser gets DuplicateUsername or DuplicateEmail.
func (d *DB) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	id, err := d.nextSeq(ctx, "users")
	if err != nil {
		return User{}, err
	}
	_, err = d.conn.ExecContext(ctx, `insert into users(user_id, username, email, password) values (?, ?, ?, ?)`,
		id, username, email, passwordHash)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(serr.Error(), "users.username") {
				return User{}, DuplicateUsername{Username: username}
			}
			return User{}, DuplicateEmail{Email: email}
		}
		return User{}, fmt.Errorf("unable to store user in database, cause %w", err)
	}
	return User{ID: id, Username: username, Email: email, PasswordHash: passwordHash}, nil
}

// FindByUsername returns the user with the given username or UserNotFound.
// The comparison is byte-exact, Alice and alice are distinct users.
func (d *DB) FindByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := d.conn.QueryRowContext(ctx, `select user_id, username, email, password from users where username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{Username: username}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to load user %v from database, cause %w", username, err)
	}
	return u, nil
}

// FindByID returns the user with the given id or UserNotFound.
func (d *DB) FindByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := d.conn.QueryRowContext(ctx, `select user_id, username, email, password from users where user_id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{ID: id}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to load user %v from database, cause %w", id, err)
	}
	return u, nil
}

// ExistsByUsername is an advisory check used for clear error messages.
// Create still enforces uniqueness on its own, callers must not treat
// a false return as a reservation.
func (d *DB) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return d.exists(ctx, `select 1 from users where username = ?`, username)
}

// ExistsByEmail is the email counterpart of ExistsByUsername.
func (d *DB) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, `select 1 from users where email = ?`, email)
}

func (d *DB) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var one int
	err := d.conn.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("unable to check user existence, cause %w", err)
	}
	return true, nil
}

func (d *DB) nextSeq(ctx context.Context, seq string) (int64, error) {
	var val int64
	err := d.conn.QueryRowContext(ctx, `insert into counters (name, val) values (?, 1) on conflict do update set val = val + 1 returning val`, seq).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("unable to increment sequence %v, cause %w", seq, err)
	}
	return val, nil
}

func (d *DB) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists counters(
			name text not null primary key,
			val integer not null
		)`,
		`create table if not exists users(
			user_id integer not null primary key,
			username text not null unique,
			email text not null unique,
			password text not null
		)`,
	} {
		_, err := d.conn.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}
