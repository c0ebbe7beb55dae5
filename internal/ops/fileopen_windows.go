//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/curatr/internal/errors"
)

// createNoFollow creates path for writing. Windows has no O_NOFOLLOW;
// ValidatePath has already refused symlinks.
func createNoFollow(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

// openNoFollow opens path read-only.
func openNoFollow(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound("file", path)
	}
	return f, err
}
