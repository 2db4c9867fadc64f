// This software is distributed under the MIT License.
//
// You should have received a copy of the MIT License along with this program.
// If not, see <https://opensource.org/licenses/MIT>

package realpath

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	// TempDir itself may live behind a symlink, e.g. /tmp on macOS.
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	real := filepath.Join(dir, "real", "nested")
	require.NoError(t, os.MkdirAll(real, 0755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "abs-link")))
	require.NoError(t, os.Symlink("real/nested", filepath.Join(dir, "rel-link")))
	require.NoError(t, os.Symlink("loop", filepath.Join(dir, "loop")))

	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":         {filepath.Join(dir, "real"), filepath.Join(dir, "real")},
		"dots":          {filepath.Join(dir, "real") + "/./nested/../nested/", real},
		"absolute-link": {filepath.Join(dir, "abs-link", "nested"), real},
		"relative-link": {filepath.Join(dir, "rel-link"), real},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Resolve(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "missing"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("loop", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "loop"))
		assert.Equal(t, errTooManyLinks, err)
	})
}
