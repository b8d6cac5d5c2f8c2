package phase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

func mustSequencer(t *testing.T, order ...string) *Sequencer {
	t.Helper()
	s, err := NewSequencer(order)
	if err != nil {
		t.Fatalf("NewSequencer(%v) error = %v", order, err)
	}
	return s
}

func TestNewSequencer_InvalidOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{"empty", nil},
		{"blank name", []string{"a", ""}},
		{"duplicate", []string{"a", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSequencer(tt.order)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("NewSequencer() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSequencer_Lifecycle(t *testing.T) {
	s := mustSequencer(t, "a", "b", "c")

	if s.Started() {
		t.Error("Started() = true before Start")
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() should report no phase before Start")
	}

	s.Start()
	if cur, _ := s.Current(); cur != "a" {
		t.Errorf("Current() = %q, want %q", cur, "a")
	}

	next, ok := s.Advance()
	if !ok || next != "b" {
		t.Errorf("Advance() = %q, %v, want %q, true", next, ok, "b")
	}
	if st, _ := s.Status("a"); st != StatusCompleted {
		t.Errorf("Status(a) = %v, want %v", st, StatusCompleted)
	}
	if st, _ := s.Status("b"); st != StatusActive {
		t.Errorf("Status(b) = %v, want %v", st, StatusActive)
	}
	if st, _ := s.Status("c"); st != StatusPending {
		t.Errorf("Status(c) = %v, want %v", st, StatusPending)
	}

	s.Advance()
	if _, ok := s.Advance(); ok {
		t.Error("Advance() past last phase should report no phase")
	}
	if !s.Done() {
		t.Error("Done() = false after completing every phase")
	}
	if _, ok := s.Advance(); ok {
		t.Error("Advance() when done should be a no-op")
	}
}

func TestSequencer_AdvanceBeforeStart(t *testing.T) {
	s := mustSequencer(t, "a", "b")

	cur, ok := s.Advance()
	if !ok || cur != "a" {
		t.Errorf("Advance() = %q, %v, want %q, true", cur, ok, "a")
	}
}

func TestSequencer_CanAccept(t *testing.T) {
	s := mustSequencer(t, "a", "b", "c")
	s.Start()
	s.Advance()

	tests := []struct {
		phase   string
		want    bool
		wantErr error
	}{
		{"a", false, errors.ErrPhaseClosed},
		{"b", true, nil},
		{"c", true, nil},
		{"zzz", false, errors.ErrUnknownPhase},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			if got := s.CanAccept(tt.phase); got != tt.want {
				t.Errorf("CanAccept(%q) = %v, want %v", tt.phase, got, tt.want)
			}
			err := s.Check(tt.phase)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Check(%q) = %v, want nil", tt.phase, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Check(%q) = %v, want %v", tt.phase, err, tt.wantErr)
			}
		})
	}
}

func TestSequencer_EarliestOpen(t *testing.T) {
	s := mustSequencer(t, "a", "b")

	if got, _ := s.EarliestOpen(); got != "a" {
		t.Errorf("EarliestOpen() before start = %q, want %q", got, "a")
	}
	s.Start()
	s.Advance()
	if got, _ := s.EarliestOpen(); got != "b" {
		t.Errorf("EarliestOpen() = %q, want %q", got, "b")
	}
	s.Advance()
	if _, ok := s.EarliestOpen(); ok {
		t.Error("EarliestOpen() should report none once every phase completed")
	}
}

func TestSequencer_OnChangeAndHistory(t *testing.T) {
	s := mustSequencer(t, "a", "b")

	type change struct {
		Phase  string
		Status Status
	}
	var got []change
	s.OnChange(func(phase string, status Status) {
		got = append(got, change{phase, status})
	})

	s.Start()
	s.Advance()
	s.Advance()

	want := []change{
		{"a", StatusActive},
		{"a", StatusCompleted},
		{"b", StatusActive},
		{"b", StatusCompleted},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if len(s.History()) != 4 {
		t.Errorf("len(History()) = %d, want 4", len(s.History()))
	}
}

func TestSequencer_OrderIsCopied(t *testing.T) {
	order := []string{"a", "b"}
	s := mustSequencer(t, order...)
	order[0] = "mutated"

	if diff := cmp.Diff([]string{"a", "b"}, s.Order()); diff != "" {
		t.Errorf("Order() mismatch (-want +got):\n%s", diff)
	}
	if s.Position("b") != 1 || s.Position("x") != -1 {
		t.Errorf("Position() returned unexpected values")
	}
}

func TestDefaultOrder(t *testing.T) {
	want := []string{"phase-setup", "phase-cleanup", "phase-execution", "phase-teardown", "phase-end"}
	if diff := cmp.Diff(want, DefaultOrder()); diff != "" {
		t.Errorf("DefaultOrder() mismatch (-want +got):\n%s", diff)
	}
	if DefaultPhase != "phase-execution" {
		t.Errorf("DefaultPhase = %q, want %q", DefaultPhase, "phase-execution")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusActive, "active"},
		{StatusCompleted, "completed"},
		{Status(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status.String() = %q, want %q", got, tt.want)
		}
	}
}
