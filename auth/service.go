package auth

import (
	"context"
	"fmt"

	"github.com/andrebq/keybox/session"
	"github.com/andrebq/keybox/userdb"
)

type (
	// Service orchestrates the credential store and the session
	// store. It keeps no state of its own.
	Service struct {
		users    *userdb.DB
		sessions session.Store

		// verified against when the username does not exist, so
		// login failures cost the same either way
		decoyHash string
	}

	// Status is what check-auth reports back.
	Status struct {
		Authenticated bool
		User          userdb.User
	}
)

// NewService wires a credential store and a session store together.
func NewService(users *userdb.DB, sessions session.Store) (*Service, error) {
	decoy, err := HashPassword("keybox-decoy")
	if err != nil {
		return nil, fmt.Errorf("unable to prepare decoy hash, cause %w", err)
	}
	return &Service{users: users, sessions: sessions, decoyHash: decoy}, nil
}

// Login verifies the credentials and hands out a fresh session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, userdb.User, error) {
	if username == "" || password == "" {
		return "", userdb.User{}, ValidationError{Message: "username and password are required"}
	}
	user, err := s.users.FindByUsername(ctx, username)
	switch err.(type) {
	case nil:
	case userdb.UserNotFound:
		VerifyPassword(password, s.decoyHash)
		return "", userdb.User{}, InvalidCredentials{}
	default:
		return "", userdb.User{}, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", userdb.User{}, InvalidCredentials{}
	}
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", userdb.User{}, err
	}
	return token, user, nil
}

// Signup creates the user and logs it in right away. Duplicate
// usernames/emails come back as userdb.DuplicateUsername or
// userdb.DuplicateEmail, the advisory Exists checks only make the
// common case fail before paying for a password hash.
func (s *Service) Signup(ctx context.Context, username, email, password, passwordConfirm string) (string, userdb.User, error) {
	if username == "" || email == "" || password == "" || passwordConfirm == "" {
		return "", userdb.User{}, ValidationError{Message: "All fields are required"}
	}
	if password != passwordConfirm {
		return "", userdb.User{}, ValidationError{Message: "Passwords do not match"}
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return "", userdb.User{}, err
	}
	if taken {
		return "", userdb.User{}, userdb.DuplicateUsername{Username: username}
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return "", userdb.User{}, err
	}
	if taken {
		return "", userdb.User{}, userdb.DuplicateEmail{Email: email}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", userdb.User{}, err
	}
	user, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		return "", userdb.User{}, err
	}
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", userdb.User{}, err
	}
	return token, user, nil
}

// Logout destroys the session behind token. Unknown or empty tokens
// are fine, logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

// CheckAuth reports whether token identifies a live session. Invalid,
// expired or missing tokens are simply unauthenticated, only storage
// faults surface as errors.
func (s *Service) CheckAuth(ctx context.Context, token string) (Status, error) {
	if token == "" {
		return Status{}, nil
	}
	userID, ok, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	switch err.(type) {
	case nil:
	case userdb.UserNotFound:
		// session outlived its user, treat as logged out
		return Status{}, nil
	default:
		return Status{}, err
	}
	return Status{Authenticated: true, User: user}, nil
}
