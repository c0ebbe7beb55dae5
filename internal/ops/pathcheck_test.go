package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/curatr/internal/errors"
)

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(existing, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "sub")
	if err := os.Mkdir(nested, 0700); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(existing, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	allowed := []string{dir}
	tests := []struct {
		name string
		path string
		mode PathCheckMode
		code errors.ErrorCode
	}{
		{"empty", "", PathCheckWrite, errors.ErrInvalidRequest},
		{"traversal", dir + "/../x.json", PathCheckWrite, errors.ErrInvalidRequest},
		{"wrong extension", filepath.Join(dir, "x.jsonl"), PathCheckWrite, errors.ErrInvalidRequest},
		{"outside allowed", filepath.Join(t.TempDir(), "x.json"), PathCheckWrite, errors.ErrInvalidRequest},
		{"nested dir", filepath.Join(nested, "x.json"), PathCheckWrite, errors.ErrInvalidRequest},
		{"symlink", link, PathCheckWrite, errors.ErrInvalidRequest},
		{"missing read", filepath.Join(dir, "missing.json"), PathCheckRead, errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.mode, allowed)
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidatePath(%q) error = %v, want %s", tt.path, err, tt.code)
			}
		})
	}

	if err := ValidatePath(existing, PathCheckRead, allowed); err != nil {
		t.Errorf("ValidatePath(existing, read) error = %v", err)
	}
	if err := ValidatePath(filepath.Join(dir, "new.json"), PathCheckWrite, allowed); err != nil {
		t.Errorf("ValidatePath(new, write) error = %v", err)
	}
}

func TestAllowedDirs(t *testing.T) {
	env, _ := newTestEnv(t)
	extra := t.TempDir()
	env.Config.AllowedPaths = []string{extra, "relative/ignored"}

	dirs, err := env.AllowedDirs()
	if err != nil {
		t.Fatalf("AllowedDirs() error = %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("AllowedDirs() = %v, want export dir plus one extra", dirs)
	}

	env.ExportDir = ""
	env.Config.AllowedPaths = nil
	if _, err := env.AllowedDirs(); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("AllowedDirs() with nothing configured error = %v, want INVALID_REQUEST", err)
	}
}
