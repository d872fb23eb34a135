package auth

import (
	"context"
	"testing"

	"github.com/andrebq/keybox/internal/testutil"
	"github.com/andrebq/keybox/session"
	"github.com/andrebq/keybox/userdb"
)

func TestSignupLoginCheckRoundtrip(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	_, created, err := svc.Signup(ctx, "bob", "bob@x.com", "p1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	token, user, err := svc.Login(ctx, "bob", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if user != created {
		t.Fatalf("login should return the signed up user, got %+v want %+v", user, created)
	}
	status, err := svc.CheckAuth(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Authenticated || status.User != created {
		t.Fatalf("check should report the logged in user, got %+v", status)
	}
}

func TestSignupCreatesSessionImmediately(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	token, _, err := svc.Signup(ctx, "bob", "bob@x.com", "p1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	status, err := svc.CheckAuth(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Authenticated {
		t.Fatal("signup should log the user in without a separate login call")
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	_, _, err := svc.Signup(ctx, "bob", "bob@x.com", "p1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	// wrong password and unknown username must be indistinguishable
	_, _, wrongPass := svc.Login(ctx, "bob", "wrong")
	_, _, unknownUser := svc.Login(ctx, "nobody", "wrong")
	if wrongPass != (InvalidCredentials{}) {
		t.Fatalf("wrong password should fail with InvalidCredentials, got %v", wrongPass)
	}
	if unknownUser != (InvalidCredentials{}) {
		t.Fatalf("unknown user should fail with InvalidCredentials, got %v", unknownUser)
	}

	_, _, err = svc.Login(ctx, "", "p1")
	if _, ok := err.(ValidationError); !ok {
		t.Fatalf("empty username should fail validation, got %v", err)
	}
	_, _, err = svc.Login(ctx, "bob", "")
	if _, ok := err.(ValidationError); !ok {
		t.Fatalf("empty password should fail validation, got %v", err)
	}
}

func TestSignupFailures(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	_, _, err := svc.Signup(ctx, "bob", "bob@x.com", "p1", "p1")
	if err != nil {
		t.Fatal(err)
	}

	type testCase struct {
		name                                      string
		username, email, pass, confirm            string
		wantValidation, wantDupUser, wantDupEmail bool
	}
	for _, tc := range []testCase{
		{"missing username", "", "a@x.com", "p1", "p1", true, false, false},
		{"missing email", "ana", "", "p1", "p1", true, false, false},
		{"missing password", "ana", "a@x.com", "", "p1", true, false, false},
		{"missing confirmation", "ana", "a@x.com", "p1", "", true, false, false},
		{"password mismatch", "ana", "a@x.com", "p1", "p2", true, false, false},
		{"duplicate username", "bob", "new@x.com", "p1", "p1", false, true, false},
		{"duplicate email", "ana", "bob@x.com", "p1", "p1", false, false, true},
	} {
		_, _, err := svc.Signup(ctx, tc.username, tc.email, tc.pass, tc.confirm)
		switch err.(type) {
		case ValidationError:
			if !tc.wantValidation {
				t.Errorf("%v: unexpected validation error %v", tc.name, err)
			}
		case userdb.DuplicateUsername:
			if !tc.wantDupUser {
				t.Errorf("%v: unexpected duplicate username error %v", tc.name, err)
			}
		case userdb.DuplicateEmail:
			if !tc.wantDupEmail {
				t.Errorf("%v: unexpected duplicate email error %v", tc.name, err)
			}
		default:
			t.Errorf("%v: signup should have failed cleanly, got %v", tc.name, err)
		}
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	token, _, err := svc.Signup(ctx, "bob", "bob@x.com", "p1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		err = svc.Logout(ctx, token)
		if err != nil {
			t.Fatalf("logout call %v should succeed, got %v", i+1, err)
		}
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatalf("logout with no session should succeed, got %v", err)
	}
	status, err := svc.CheckAuth(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if status.Authenticated {
		t.Fatal("token should not validate after logout")
	}
}

func TestCheckAuthFailsClosed(t *testing.T) {
	ctx := context.Background()
	svc, cleanup := tempService(ctx, t)
	defer cleanup()

	for _, token := range []string{"", "garbage", "deadbeef"} {
		status, err := svc.CheckAuth(ctx, token)
		if err != nil {
			t.Fatal(err)
		}
		if status.Authenticated {
			t.Fatalf("token %q should not authenticate", token)
		}
	}
}

func tempService(ctx context.Context, t *testing.T) (*Service, func()) {
	users, cleanup := testutil.AcquireUserDB(ctx, t)
	svc, err := NewService(users, session.InMemoryStore(0))
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	return svc, cleanup
}
