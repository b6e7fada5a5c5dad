package version

import "testing"

func TestShortFallsBack(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3"
	if got := Short(); got != "1.2.3" {
		t.Fatalf("Short() = %q, want 1.2.3", got)
	}
	Version = "  "
	if got := Short(); got == "" {
		t.Fatalf("Short() returned empty string")
	}
}

func TestFingerprint(t *testing.T) {
	origV, origC := Version, GitCommit
	defer func() { Version, GitCommit = origV, origC }()

	tests := []struct {
		version, commit, want string
	}{
		{"0.1.0", "", "0.1.0"},
		{"0.1.0", "abc123", "0.1.0+abc123"},
	}
	for _, tt := range tests {
		Version, GitCommit = tt.version, tt.commit
		if got := Fingerprint(); got != tt.want {
			t.Fatalf("Fingerprint() = %q, want %q", got, tt.want)
		}
	}
}
