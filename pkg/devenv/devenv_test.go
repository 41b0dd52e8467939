package devenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	resolved, err := ResolvePath("results.db")
	require.NoError(t, err)
	require.Equal(t, "results.db", resolved)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	resolved, err = ResolvePath("<dev_state>/apkfetch.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "apkfetch.db"), resolved)

	info, err := os.Stat(filepath.Join(root, "dev", ".state"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
