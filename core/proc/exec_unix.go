//go:build unix

package proc

import "golang.org/x/sys/unix"

func execve(argv0 string, argv, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}

func dup2(oldfd, newfd int) error {
	return unix.Dup2(oldfd, newfd)
}

// dup copies fd to a close-on-exec descriptor so the copy doesn't leak into
// a replaced process image.
func dup(fd int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
}

func closeFd(fd int) error {
	return unix.Close(fd)
}
