package session

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	memStore struct {
		cache *bigcache.BigCache
		ttl   time.Duration
	}
)

// InMemoryStore keeps sessions in process memory, they are lost on
// restart. The cache life window doubles as the expiry mechanism, the
// encoded deadline is a second check for entries the cache has not
// evicted yet.
func InMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, _ := bigcache.NewBigCache(bigcache.DefaultConfig(ttl))
	return &memStore{
		cache: cache,
		ttl:   ttl,
	}
}

func (m *memStore) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf, uint64(userID))
	binary.BigEndian.PutUint64(buf[8:], uint64(time.Now().UTC().Add(m.ttl).Unix()))
	err = m.cache.Set(token, buf)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (m *memStore) Validate(ctx context.Context, token string) (int64, bool, error) {
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	if len(buf) != 16 {
		return 0, false, nil
	}
	expiresAt := int64(binary.BigEndian.Uint64(buf[8:]))
	if time.Now().UTC().Unix() >= expiresAt {
		m.cache.Delete(token)
		return 0, false, nil
	}
	return int64(binary.BigEndian.Uint64(buf)), true, nil
}

func (m *memStore) Destroy(ctx context.Context, token string) error {
	err := m.cache.Delete(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}
