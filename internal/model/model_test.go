package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionIsOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name     string
		open     bool
		closesAt time.Time
		want     bool
	}{
		{"OpenBeforeDeadline", true, now.Add(time.Minute), true},
		{"OpenAtDeadline", true, now, false},
		{"OpenPastDeadline", true, now.Add(-time.Second), false},
		{"ClosedBeforeDeadline", false, now.Add(time.Minute), false},
		{"ClosedPastDeadline", false, now.Add(-time.Minute), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := &Session{Open: tc.open, ClosesAt: tc.closesAt}
			if got := s.IsOpen(now); got != tc.want {
				t.Errorf("IsOpen() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionDuration(t *testing.T) {
	for _, tc := range []struct {
		minutes int
		want    time.Duration
	}{
		{0, time.Minute},
		{-5, time.Minute},
		{1, time.Minute},
		{60, time.Hour},
	} {
		if got := SessionDuration(tc.minutes); got != tc.want {
			t.Errorf("SessionDuration(%d) = %v, want %v", tc.minutes, got, tc.want)
		}
	}
}

func TestClassifyOutcome(t *testing.T) {
	for _, tc := range []struct {
		yes, no int64
		want    Outcome
	}{
		{3, 2, OutcomeApproved},
		{2, 3, OutcomeRejected},
		{2, 2, OutcomeTie},
		{0, 0, OutcomeTie},
		{1, 0, OutcomeApproved},
		{0, 1, OutcomeRejected},
	} {
		if got := ClassifyOutcome(tc.yes, tc.no); got != tc.want {
			t.Errorf("ClassifyOutcome(%d, %d) = %s, want %s", tc.yes, tc.no, got, tc.want)
		}
	}
}

func TestValidateMemberID(t *testing.T) {
	for _, tc := range []struct {
		name     string
		memberID string
		wantErr  bool
	}{
		{"Valid", "12345678901", false},
		{"TooShort", "1234567890", true},
		{"TooLong", "123456789012", true},
		{"NonNumeric", "1234567890a", true},
		{"Empty", "", true},
		{"Spaces", "123 5678901", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMemberID(tc.memberID)
			if tc.wantErr && !errors.Is(err, ErrInvalidMemberID) {
				t.Errorf("ValidateMemberID(%q) = %v, want ErrInvalidMemberID", tc.memberID, err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateMemberID(%q) = %v, want nil", tc.memberID, err)
			}
		})
	}
}

func TestValidateAgendaItem(t *testing.T) {
	valid := &AgendaItem{Title: "Budget approval for 2026"}
	if err := ValidateAgendaItem(valid); err != nil {
		t.Errorf("valid item: unexpected error %v", err)
	}

	blank := &AgendaItem{Title: "   "}
	if err := ValidateAgendaItem(blank); err == nil {
		t.Error("blank title: expected error, got nil")
	}

	long := &AgendaItem{Title: "t", Description: strings.Repeat("d", 1001)}
	if err := ValidateAgendaItem(long); err == nil {
		t.Error("oversized description: expected error, got nil")
	}
}

func TestChoiceIsValid(t *testing.T) {
	if !ChoiceYes.IsValid() || !ChoiceNo.IsValid() {
		t.Error("YES and NO must be valid choices")
	}
	if Choice("MAYBE").IsValid() {
		t.Error("MAYBE must not be a valid choice")
	}
}

func TestIsBusinessError(t *testing.T) {
	for _, err := range []error{
		ErrNotFound, ErrConflict, ErrSessionClosed,
		ErrDuplicateVote, ErrInvalidMemberID, ErrIneligibleMember,
	} {
		if !IsBusinessError(err) {
			t.Errorf("IsBusinessError(%v) = false, want true", err)
		}
	}
	if IsBusinessError(errors.New("connection refused")) {
		t.Error("transient error must not be a business error")
	}
}
