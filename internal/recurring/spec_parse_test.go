package recurring

import (
	"testing"
	"time"
)

func TestParseScheduleCron(t *testing.T) {
	ps, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if ps.Kind != SpecCron || ps.Cron != "*/5 * * * *" {
		t.Fatalf("got %+v, want cron spec", ps)
	}
}

func TestParseScheduleDuration(t *testing.T) {
	ps, err := ParseSchedule("55m")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if ps.Kind != SpecInterval || ps.Every != 55*time.Minute {
		t.Fatalf("got %+v, want 55m interval", ps)
	}
}

func TestParseScheduleHHMM(t *testing.T) {
	ps, err := ParseSchedule("02:30")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	want := 2*time.Hour + 30*time.Minute
	if ps.Kind != SpecInterval || ps.Every != want {
		t.Fatalf("got %+v, want %v interval", ps, want)
	}
}

func TestParseScheduleRejectsEmpty(t *testing.T) {
	if _, err := ParseSchedule("   "); err == nil {
		t.Fatalf("expected error for empty schedule")
	}
}

func TestParseScheduleRejectsNonPositiveInterval(t *testing.T) {
	if _, err := ParseSchedule("interval:0s"); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
