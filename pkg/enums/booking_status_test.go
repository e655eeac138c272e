package enums

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingStatusAccepted, BookingStatusInProgress, true},
		{BookingStatusAccepted, BookingStatusCancelled, true},
		{BookingStatusInProgress, BookingStatusCompleted, true},
		{BookingStatusAccepted, BookingStatusCompleted, false},
		{BookingStatusInProgress, BookingStatusCancelled, false},
		{BookingStatusPending, BookingStatusInProgress, false},
		{BookingStatusCompleted, BookingStatusInProgress, false},
		{BookingStatusCancelled, BookingStatusAccepted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	if !BookingStatusCompleted.IsTerminal() {
		t.Fatal("completed should be terminal")
	}
	if !BookingStatusCancelled.IsTerminal() {
		t.Fatal("cancelled should be terminal")
	}
	if BookingStatusAccepted.IsTerminal() {
		t.Fatal("accepted should not be terminal")
	}
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("in_progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != BookingStatusInProgress {
		t.Fatalf("got %s, want %s", status, BookingStatusInProgress)
	}

	if _, err := ParseBookingStatus("paused"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseNotificationTargetTypeDefaultsToAll(t *testing.T) {
	target, err := ParseNotificationTargetType("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != NotificationTargetAll {
		t.Fatalf("got %s, want %s", target, NotificationTargetAll)
	}

	if _, err := ParseNotificationTargetType("group"); err == nil {
		t.Fatal("expected error for unknown target type")
	}
}
