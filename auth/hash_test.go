package auth

import (
	"strings"
	"testing"
)

func TestHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash should carry its parameters, got %v", hash)
	}
	if strings.Contains(hash, "hunter2") {
		t.Fatal("plaintext leaked into the encoded hash")
	}
	if !VerifyPassword("hunter2", hash) {
		t.Fatal("correct password should verify")
	}
	if VerifyPassword("hunter3", hash) {
		t.Fatal("wrong password should not verify")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	first, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	second, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("two hashes of the same password should never match")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=32768,t=3,p=4$not-base64!$also-not-base64!",
		"$argon2i$v=19$m=32768,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=18$m=32768,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=32768$c2FsdA$a2V5",
	} {
		if VerifyPassword("hunter2", encoded) {
			t.Errorf("malformed hash %q should not verify", encoded)
		}
	}
}
