// Package session issues and validates the opaque tokens that keep a
// user logged in between requests.
//
// Tokens carry no information, they are 32 random bytes hex encoded.
// Everything interesting (which user, until when) lives server-side in
// a Store, so losing the store logs everyone out and nothing worse.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type (
	// Store keeps the mapping from live tokens to user ids.
	//
	// Validate fails closed: any token the store does not recognize,
	// for whatever reason, is simply not authenticated. Destroy is
	// idempotent, destroying an unknown token is not an error.
	Store interface {
		Create(ctx context.Context, userID int64) (string, error)
		Validate(ctx context.Context, token string) (int64, bool, error)
		Destroy(ctx context.Context, token string) error
	}
)

// DefaultTTL matches the two week session lifetime the original
// deployment ran with.
const DefaultTTL = 14 * 24 * time.Hour

func newToken() (string, error) {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("unable to generate session token, cause %w", err)
	}
	return hex.EncodeToString(buf), nil
}
