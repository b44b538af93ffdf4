package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `meta:
  calendar_id: nse_cash
  version: "2026.1"
  timezone: Asia/Kolkata
session:
  open: "09:15"
  close: "15:30"
holidays:
  - "2026-08-19"
  - "2026-10-20"
`

func writeCalendar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write calendar: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cal, err := Load(writeCalendar(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cal.Meta.CalendarID != "nse_cash" {
		t.Errorf("expected calendar_id=nse_cash, got %s", cal.Meta.CalendarID)
	}
	if len(cal.Holidays) != 2 {
		t.Errorf("expected 2 holidays, got %d", len(cal.Holidays))
	}

	hash, err := Hash(cal)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cal)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeCalendar(t, sampleYAML+"lunch_break: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadRejectsInvertedSession(t *testing.T) {
	bad := `meta:
  calendar_id: test
  version: "1"
  timezone: UTC
session:
  open: "15:30"
  close: "09:15"
`
	_, err := Load(writeCalendar(t, bad))
	if err == nil {
		t.Fatal("expected error for open after close, got nil")
	}
}

func TestInSession(t *testing.T) {
	cal, err := Load(writeCalendar(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ist := cal.Location()

	tests := []struct {
		name string
		t    time.Time
		open bool
	}{
		{"mid-session", time.Date(2026, 8, 20, 11, 0, 0, 0, ist), true}, // Thursday
		{"at open", time.Date(2026, 8, 20, 9, 15, 0, 0, ist), true},
		{"before open", time.Date(2026, 8, 20, 9, 0, 0, 0, ist), false},
		{"at close", time.Date(2026, 8, 20, 15, 30, 0, 0, ist), true},
		{"after close", time.Date(2026, 8, 20, 15, 31, 0, 0, ist), false},
		{"saturday", time.Date(2026, 8, 22, 11, 0, 0, 0, ist), false},
		{"holiday wednesday", time.Date(2026, 8, 19, 11, 0, 0, 0, ist), false},
		{"utc conversion", time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC), true}, // 11:30 IST
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cal.InSession(tc.t); got != tc.open {
				t.Errorf("InSession(%v) = %v, want %v", tc.t, got, tc.open)
			}
		})
	}
}

func TestDefaultCalendar(t *testing.T) {
	cal := Default()
	if err := Validate(cal); err != nil {
		t.Fatalf("default calendar invalid: %v", err)
	}
	if cal.Session.Open != "09:15" || cal.Session.Close != "15:30" {
		t.Errorf("unexpected default session %s-%s", cal.Session.Open, cal.Session.Close)
	}
}

func TestValidateHHMM(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"09:00", true},
		{"15:30", true},
		{"00:00", true},
		{"23:59", true},
		{"9:00", false},
		{"09:0", false},
		{"25:00", false},
		{"09:60", false},
		{"invalid", false},
	}

	for _, tc := range tests {
		err := validateHHMM(tc.input)
		if tc.valid && err != nil {
			t.Errorf("validateHHMM(%s) expected valid, got error: %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("validateHHMM(%s) expected error, got nil", tc.input)
		}
	}
}
