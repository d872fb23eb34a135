package testutil

import (
	"context"
	"io/ioutil"
	"os"
	"time"

	"github.com/andrebq/keybox/session"
	"github.com/andrebq/keybox/userdb"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireUserDB stands up a user database in a throwaway directory.
func AcquireUserDB(ctx context.Context, t TestLog) (*userdb.DB, func()) {
	dir, err := ioutil.TempDir("", "keybox-tests")
	if err != nil {
		t.Fatal(err)
	}
	db, err := userdb.Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	return db, func() {
		err := db.Close()
		if err != nil {
			t.Log("unable to close user database", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquireSessionStore stands up a sqlite session store in a throwaway
// directory. Pass zero for the default TTL.
func AcquireSessionStore(ctx context.Context, t TestLog, ttl time.Duration) (*session.SQLiteStore, func()) {
	dir, err := ioutil.TempDir("", "keybox-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := session.OpenSQLiteStore(ctx, dir, ttl)
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
