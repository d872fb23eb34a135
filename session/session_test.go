package session

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	sqlite, cleanup := tempSQLiteStore(t, 0)
	defer cleanup()
	for name, store := range map[string]Store{
		"sqlite": sqlite,
		"memory": InMemoryStore(0),
	} {
		t.Run(name, func(t *testing.T) {
			token, err := store.Create(ctx, 42)
			if err != nil {
				t.Fatal(err)
			}
			if len(token) != 64 {
				t.Fatalf("token should be 32 bytes hex encoded, got %v", token)
			}
			userID, ok, err := store.Validate(ctx, token)
			if err != nil {
				t.Fatal(err)
			} else if !ok || userID != 42 {
				t.Fatalf("token should validate to user 42, got (%v, %v)", userID, ok)
			}

			// garbage and empty tokens fail closed
			for _, garbage := range []string{"", "not-a-token", token + "00"} {
				_, ok, err := store.Validate(ctx, garbage)
				if err != nil {
					t.Fatal(err)
				} else if ok {
					t.Fatalf("garbage token %q should not validate", garbage)
				}
			}

			// destroy is idempotent
			for i := 0; i < 2; i++ {
				err = store.Destroy(ctx, token)
				if err != nil {
					t.Fatal(err)
				}
			}
			_, ok, err = store.Validate(ctx, token)
			if err != nil {
				t.Fatal(err)
			} else if ok {
				t.Fatal("destroyed token should not validate")
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	sqlite, cleanup := tempSQLiteStore(t, time.Millisecond)
	defer cleanup()
	for name, store := range map[string]Store{
		"sqlite": sqlite,
		"memory": InMemoryStore(time.Millisecond),
	} {
		t.Run(name, func(t *testing.T) {
			token, err := store.Create(ctx, 7)
			if err != nil {
				t.Fatal(err)
			}
			time.Sleep(10 * time.Millisecond)
			_, ok, err := store.Validate(ctx, token)
			if err != nil {
				t.Fatal(err)
			} else if ok {
				t.Fatal("expired token should not validate")
			}
		})
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	store, cleanup := tempSQLiteStore(t, time.Millisecond)
	defer cleanup()
	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, int64(i))
		if err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(10 * time.Millisecond)
	swept, err := store.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	} else if swept != 3 {
		t.Fatalf("sweep should remove 3 expired sessions, removed %v", swept)
	}
	// a second sweep has nothing left to do
	swept, err = store.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	} else if swept != 0 {
		t.Fatalf("second sweep should be a no-op, removed %v", swept)
	}
}

func TestLazyEviction(t *testing.T) {
	ctx := context.Background()
	store, cleanup := tempSQLiteStore(t, time.Millisecond)
	defer cleanup()
	token, err := store.Create(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	_, ok, err := store.Validate(ctx, token)
	if err != nil {
		t.Fatal(err)
	} else if ok {
		t.Fatal("expired token should not validate")
	}
	// validate already deleted the row, nothing left to sweep
	swept, err := store.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	} else if swept != 0 {
		t.Fatalf("validate should have evicted the expired session, sweep removed %v", swept)
	}
}

func tempSQLiteStore(t *testing.T, ttl time.Duration) (*SQLiteStore, func()) {
	dir, err := ioutil.TempDir("", "keybox-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := OpenSQLiteStore(context.Background(), dir, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close session store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
