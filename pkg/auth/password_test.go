package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("expected argon2id prefix, got %q", hash)
	}
	if len(strings.Split(hash, "$")) != 3 {
		t.Errorf("expected 3 segments, got %q", hash)
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if first == second {
		t.Error("expected different salts to produce different hashes")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	valid, err := VerifyPassword(hash, "s3cret")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !valid {
		t.Error("expected correct password to verify")
	}

	valid, err = VerifyPassword(hash, "wrong")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if valid {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-hash",
		"argon2id$only-two",
		"argon2id$!!!$!!!",
		"bcrypt$abc$def",
	}

	for _, hash := range cases {
		if _, err := VerifyPassword(hash, "whatever"); err == nil {
			t.Errorf("expected error for malformed hash %q", hash)
		}
	}
}
