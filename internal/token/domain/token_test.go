package domain

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActive, StatusRotated, true},
		{StatusActive, StatusRevoked, true},
		{StatusRotated, StatusRevoked, true},
		{StatusRotated, StatusActive, false},
		{StatusRotated, StatusRotated, false},
		{StatusRevoked, StatusActive, false},
		{StatusRevoked, StatusRotated, false},
		{StatusRevoked, StatusRevoked, false},
		{StatusActive, StatusActive, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s → %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
