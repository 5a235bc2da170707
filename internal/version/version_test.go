package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, BuildDate = "1.2.3", "abc123", "2024-06-29"
	if got := String(); got != "1.2.3 (commit abc123, built 2024-06-29)" {
		t.Fatalf("unexpected build string %q", got)
	}
}
