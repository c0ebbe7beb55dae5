package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/curatr/internal/errors"
)

// BackupExt is the required backup file extension.
const BackupExt = ".json"

// PathCheckMode says whether a backup path is about to be read or written.
type PathCheckMode int

const (
	PathCheckRead PathCheckMode = iota
	PathCheckWrite
)

// ValidatePath checks a backup path before it is opened. The file must carry
// the .json extension, sit directly inside one of allowedDirs (nested
// directories are refused), and neither it nor its parent may be a symlink.
// Reads additionally require the file to exist.
func ValidatePath(path string, mode PathCheckMode, allowedDirs []string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if hasTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != BackupExt {
		return errors.NewInvalidRequest("path must have .json extension")
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	parent := filepath.Dir(absPath)
	if !inAllowedDir(parent, allowedDirs) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory; allowed: %v", allowedDirs))
	}
	if isSymlink(parent) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound("file", path)
		}
	}
	if isSymlink(absPath) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// AllowedDirs resolves the export directory plus any absolute configured
// paths. Symlinked entries are resolved so comparisons use real paths.
func (e *Env) AllowedDirs() ([]string, error) {
	candidates := make([]string, 0, 1+len(e.cfg().AllowedPaths))
	if e.ExportDir != "" {
		candidates = append(candidates, e.ExportDir)
	}
	for _, p := range e.cfg().AllowedPaths {
		if filepath.IsAbs(p) {
			candidates = append(candidates, p)
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve allowed path: %v", err))
			}
			abs = resolved
		}
		dirs = append(dirs, abs)
	}
	if len(dirs) == 0 {
		return nil, errors.NewInvalidRequest("no backup directory configured")
	}
	return dirs, nil
}

func inAllowedDir(parent string, allowed []string) bool {
	parent = filepath.Clean(parent)
	for _, d := range allowed {
		if parent == filepath.Clean(d) {
			return true
		}
	}
	return false
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func hasTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		if part == ".." {
			return true
		}
	}
	return false
}
