package model

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestReservationLock_Overlaps(t *testing.T) {
	lock := &ReservationLock{StartDate: day(2), EndDate: day(4)}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical range", day(2), day(4), true},
		{"contained", day(3), day(3), true},
		{"containing", day(0), day(10), true},
		{"touches start day", day(0), day(2), true},
		{"touches end day", day(4), day(6), true},
		{"entirely before", day(0), day(1), false},
		{"entirely after", day(5), day(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lock.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.start.Format("2006-01-02"), tt.end.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestReservationLock_IsActive(t *testing.T) {
	for status, want := range map[string]bool{
		LockHeld:      true,
		LockConfirmed: true,
		LockReleased:  false,
	} {
		lock := &ReservationLock{Status: status}
		if lock.IsActive() != want {
			t.Errorf("IsActive() for %s = %v, want %v", status, lock.IsActive(), want)
		}
	}
}
