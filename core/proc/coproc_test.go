//go:build unix

package proc

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

func TestStartCoproc(t *testing.T) {
	l := newTestLauncher()
	co, err := l.StartCoproc("", &Request{Path: "/bin/cat", Argv: []string{"cat"}})
	require.NoError(t, err)
	defer co.Close()

	assert.Equal(t, DefaultCoprocName, co.Name)
	assert.NotEqual(t, co.ReadFd(), co.WriteFd())

	msg := []byte("round trip\n")
	var got []byte

	var g errgroup.Group
	g.Go(func() error {
		_, err := unix.Write(co.WriteFd(), msg)
		if err != nil {
			return err
		}
		return co.CloseWrite()
	})
	g.Go(func() error {
		buf := make([]byte, 64)
		for {
			n, err := unix.Read(co.ReadFd(), buf)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			got = append(got, buf[:n]...)
		}
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, msg, got)
	assert.Equal(t, 0, co.Job.Wait())
}

func TestStartCoprocFailure(t *testing.T) {
	l := newTestLauncher()
	_, err := l.StartCoproc("W", &Request{Path: "/does/not/exist"})
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, l.Jobs.List())
}

func TestCoprocs(t *testing.T) {
	l := newTestLauncher()
	set := NewCoprocs()

	first, err := l.StartCoproc("W", &Request{Path: "/bin/cat", Argv: []string{"cat"}})
	require.NoError(t, err)
	require.NoError(t, set.Add(first))

	second, err := l.StartCoproc("W", &Request{Path: "/bin/cat", Argv: []string{"cat"}})
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, errors.Is(set.Add(second), ErrCoprocExists))

	file, ok := set.File(first.WriteFd())
	assert.True(t, ok)
	assert.Same(t, first.Write, file)

	// Once the first one finishes the name is free again.
	first.CloseWrite()
	io.Copy(io.Discard, first.Read)
	first.Job.Wait()
	require.NoError(t, set.Add(second))

	got, _ := set.Get("W")
	assert.Same(t, second, got)
	assert.Equal(t, []string{"W"}, set.Names())

	set.CloseAll()
	assert.Empty(t, set.Names())
}
