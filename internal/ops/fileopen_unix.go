//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/curatr/internal/errors"
)

// createNoFollow creates path for writing, refusing a symlinked final
// component. Parent directories are checked by ValidatePath.
func createNoFollow(path string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC | syscall.O_NOFOLLOW | syscall.O_CLOEXEC
	fd, err := syscall.Open(path, flags, 0600)
	if stderrors.Is(err, syscall.ELOOP) {
		return nil, errors.NewInvalidRequest("cannot write to symlink")
	}
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openNoFollow opens path read-only, refusing a symlinked final component.
func openNoFollow(path string) (*os.File, error) {
	fd, err := syscall.Open(path, os.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	switch {
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("cannot read from symlink")
	case stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewNotFound("file", path)
	case err != nil:
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
