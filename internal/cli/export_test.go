package cli

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	if ts, err := parseTimestamp("--from", ""); err != nil || ts != nil {
		t.Fatalf("empty input should be nil, got %v %v", ts, err)
	}

	ts, err := parseTimestamp("--from", "1719619200")
	if err != nil {
		t.Fatalf("unix seconds: %v", err)
	}
	if want := time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC); !ts.Equal(want) {
		t.Fatalf("got %v, want %v", ts, want)
	}

	ts, err = parseTimestamp("--to", "2024-06-29T12:00:00Z")
	if err != nil || ts.Hour() != 12 {
		t.Fatalf("rfc3339: %v %v", ts, err)
	}

	if _, err := parseTimestamp("--to", "yesterday"); err == nil {
		t.Fatal("expected an error for garbage input")
	}
}
