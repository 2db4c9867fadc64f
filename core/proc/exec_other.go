//go:build !unix

package proc

import "errors"

var errNoExec = errors.New("process image replacement is not supported on this platform")

func execve(argv0 string, argv, envv []string) error {
	return errNoExec
}

func dup2(oldfd, newfd int) error {
	return errNoExec
}

func dup(fd int) (int, error) {
	return -1, errNoExec
}

func closeFd(fd int) error {
	return errNoExec
}
