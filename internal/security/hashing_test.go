package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	pw := []byte("CorrectHorse1!")

	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash %q is not a bcrypt string", hash)
	}
	if err := h.Compare(hash, pw); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_RejectsWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("CorrectHorse1!"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	err = h.Compare(hash, []byte("correcthorse1!"))
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Fatalf("Compare = %v, want ErrMismatchedHashAndPassword", err)
	}
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	pw := []byte("CorrectHorse1!")
	a, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{12, 12},
		{0, bcrypt.DefaultCost},
		{bcrypt.MinCost - 1, bcrypt.MinCost},
		{bcrypt.MaxCost + 1, bcrypt.MaxCost},
	}
	for _, c := range cases {
		if got := NewHasher(c.in).Cost; got != c.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", c.in, got, c.want)
		}
	}
}
