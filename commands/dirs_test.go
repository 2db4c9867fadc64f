//go:build unix

package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestCd(t *testing.T) {
	ts := newTestShell(t)
	a, b := evalTempDir(t), evalTempDir(t)

	code, stdout, _ := ts.run("cd " + a + "; pwd")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, a+"\n", stdout)

	_, stdout, _ = ts.run("cd " + b + "; cd -")
	assert.Equal(t, a+"\n", stdout)
	assert.Equal(t, b, ts.Store.Getvar(EnvOldPWD))
	assert.Equal(t, a, ts.Store.Getvar(EnvPWD))

	_, stdout, _ = ts.run("cd; pwd")
	assert.Equal(t, ts.Store.Getvar(EnvHome)+"\n", stdout)

	code, _, stderr := ts.run("cd " + filepath.Join(a, "missing"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "no such file or directory")

	code, _, stderr = ts.run("unset HOME; cd")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "cd: HOME not set\n", stderr)
}

func TestDirStack(t *testing.T) {
	ts := newTestShell(t)
	a, b, c := evalTempDir(t), evalTempDir(t), evalTempDir(t)

	code, stdout, _ := ts.run("cd " + a + "; pushd " + b + "; pushd " + c + "; dirs -l")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, a+" "+b+"\n", stdout)

	_, stdout, _ = ts.run("dirs -v")
	assert.Equal(t, " 0  "+a+"\n 1  "+b+"\n", stdout)

	t.Run("swap", func(t *testing.T) {
		_, stdout, _ := ts.run("pushd; pwd; dirs -l")
		assert.Equal(t, b+"\n"+a+" "+c+"\n", stdout)

		ts.run("pushd")
		assert.Equal(t, c, ts.Cwd())
	})

	t.Run("pop", func(t *testing.T) {
		_, stdout, _ := ts.run("popd; pwd; popd; pwd")
		assert.Equal(t, b+"\n"+a+"\n", stdout)

		code, _, stderr := ts.run("popd")
		assert.Equal(t, ExitFailure, code)
		assert.Equal(t, "popd: directory stack empty\n", stderr)
	})

	t.Run("no-other-directory", func(t *testing.T) {
		code, _, stderr := ts.run("pushd")
		assert.Equal(t, ExitFailure, code)
		assert.Equal(t, "pushd: no other directory\n", stderr)
	})

	t.Run("failed-push-rolls-back", func(t *testing.T) {
		code, _, _ := ts.run("pushd " + filepath.Join(a, "missing"))
		assert.Equal(t, ExitFailure, code)
		assert.Equal(t, 0, ts.Store.Dirs.Len())
		assert.Equal(t, a, ts.Cwd())
	})

	t.Run("clear", func(t *testing.T) {
		ts.run("pushd " + b + "; dirs -c")
		_, stdout, _ := ts.run("dirs")
		assert.Empty(t, stdout)
	})
}

func TestDirsTilde(t *testing.T) {
	ts := newTestShell(t)
	home := ts.Store.Getvar(EnvHome)
	other := evalTempDir(t)

	_, stdout, _ := ts.run("cd " + home + "; pushd " + other + "; dirs")
	assert.Equal(t, "~\n", stdout)
}
