package system

import (
	"testing"
	"time"
)

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	now := New().Now()
	if now.Location() != time.UTC {
		t.Errorf("Now() location = %v, want UTC", now.Location())
	}
}

func TestTodayFormat(t *testing.T) {
	t.Parallel()

	today := New().Today()
	if _, err := time.Parse("20060102", today); err != nil {
		t.Errorf("Today() = %q is not a valid snapshot date: %v", today, err)
	}
}
