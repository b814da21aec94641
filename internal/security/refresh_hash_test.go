package security

import "testing"

func TestHashRefreshToken_Deterministic(t *testing.T) {
	a := HashRefreshToken("some-token")
	b := HashRefreshToken("some-token")
	if a != b {
		t.Error("same token should hash to same value")
	}
	if a == HashRefreshToken("other-token") {
		t.Error("different tokens should hash to different values")
	}
	if len(a) != 64 { // hex-encoded SHA-256
		t.Errorf("hash length = %d, want 64", len(a))
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	stored := HashRefreshToken("the-token")
	if !RefreshTokenHashEqual("the-token", stored) {
		t.Error("matching token should compare equal")
	}
	if RefreshTokenHashEqual("not-the-token", stored) {
		t.Error("non-matching token should not compare equal")
	}
	if RefreshTokenHashEqual("", stored) {
		t.Error("empty token should not compare equal")
	}
}
