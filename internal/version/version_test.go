package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	if got, want := String(), "wizard 1.2.3 (commit unknown, built unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
