package proposal

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusExecuted, true},
		{StatusApproved, StatusFailed, true},

		{StatusPending, StatusExecuted, false},
		{StatusPending, StatusFailed, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusExecuted, StatusFailed, false},
		{StatusExecuted, StatusPending, false},
		{StatusFailed, StatusApproved, false},
		{StatusFailed, StatusExecuted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:  false,
		StatusApproved: false,
		StatusRejected: true,
		StatusExecuted: true,
		StatusFailed:   true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusExecuted, StatusFailed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("cancelled").Valid() {
		t.Error("unknown status should not be valid")
	}
	if Status("").Valid() {
		t.Error("empty status should not be valid")
	}
}
