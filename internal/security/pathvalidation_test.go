package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	backups := filepath.Join(tmpDir, "backups")
	elsewhere := filepath.Join(tmpDir, "elsewhere")
	for _, d := range []string{backups, elsewhere} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	existing := filepath.Join(backups, "angles-1.db")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(backups, "escape")
	if err := os.Symlink(elsewhere, link); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		wantError bool
	}{
		{"existing file", existing, false},
		{"new file", filepath.Join(backups, "angles-2.db"), false},
		{"new file in new subdir", filepath.Join(backups, "2025", "06", "angles.db"), false},
		{"directory itself", backups, false},
		{"dot dot escape", filepath.Join(backups, "..", "elsewhere", "x.db"), true},
		{"sibling", filepath.Join(elsewhere, "x.db"), true},
		{"through symlink", filepath.Join(link, "x.db"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, backups)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
		})
	}
}

func TestValidatePathWithinDirectory_MissingSafeDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if err := ValidatePathWithinDirectory(filepath.Join(missing, "x"), missing); err == nil {
		t.Error("expected error when the safe directory does not exist")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"angles", "angles"},
		{"angles.db", "angles.db"},
		{"../../etc/passwd", "etc_passwd"},
		{"my session #3", "my_session_3"},
		{"a///b", "a_b"},
		{"__hidden__", "hidden"},
		{"", "unknown"},
		{"...", "unknown"},
		{"ünïcode", "n_code"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("a", 500))
	if len(long) != 128 {
		t.Errorf("long name length = %d, want 128", len(long))
	}
}
