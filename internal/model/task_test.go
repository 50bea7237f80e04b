package model

import "testing"

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusNotStarted, true},
		{StatusInProgress, true},
		{StatusDone, true},
		{Status("not_started"), true},
		{Status(""), false},
		{Status("open"), false},
		{Status("Done"), false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestStatus_IsActive(t *testing.T) {
	tests := []struct {
		status Status
		active bool
	}{
		{StatusNotStarted, true},
		{StatusInProgress, true},
		{StatusDone, false},
		{Status("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestStatus_IsSettable(t *testing.T) {
	tests := []struct {
		status   Status
		settable bool
	}{
		{StatusNotStarted, false},
		{StatusInProgress, true},
		{StatusDone, true},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsSettable(); got != tt.settable {
				t.Errorf("IsSettable() = %v, want %v", got, tt.settable)
			}
		})
	}
}

func TestStatuses_AllValid(t *testing.T) {
	if len(Statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(Statuses))
	}
	for _, s := range Statuses {
		if !s.IsValid() {
			t.Errorf("status %q should be valid", s)
		}
	}
}
