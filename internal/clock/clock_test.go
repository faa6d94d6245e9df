package clock

import (
	"testing"
	"time"
)

func TestNowUsesFixedOffset(t *testing.T) {
	orig := nowFunc
	defer func() { nowFunc = orig }()

	instant := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return instant }

	got := Now()

	if !got.Equal(instant) {
		t.Fatalf("expected the same instant, got %v", got)
	}

	_, offset := got.Zone()
	if offset != 3*60*60 {
		t.Fatalf("expected +3h offset, got %d seconds", offset)
	}
	if got.Hour() != 15 {
		t.Fatalf("expected civil hour 15 for noon UTC, got %d", got.Hour())
	}
}

func TestFormatConvertsToCivilZone(t *testing.T) {
	instant := time.Date(2025, 12, 31, 22, 30, 0, 0, time.UTC)

	if got := Format(instant); got != "2026-01-01 01:30:00" {
		t.Fatalf("unexpected formatted timestamp: %s", got)
	}
}
