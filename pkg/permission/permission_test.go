package permission

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceNodes(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_dir", func(t *testing.T) {
		require.False(t, DeviceNodes{Dir: filepath.Join(t.TempDir(), "nope")}.IsGranted(ctx))
	})

	t.Run("no_capture_nodes", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pcmC0D0p"), nil, 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "controlC0"), nil, 0600))
		require.False(t, DeviceNodes{Dir: dir}.IsGranted(ctx))
	})

	t.Run("accessible_capture_node", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pcmC1D0c"), nil, 0600))
		require.True(t, DeviceNodes{Dir: dir}.IsGranted(ctx))
	})

	t.Run("read_only_capture_node", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root bypasses file permissions")
		}
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pcmC1D0c"), nil, 0400))
		require.False(t, DeviceNodes{Dir: dir}.IsGranted(ctx))
	})
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	require.True(t, AlwaysGranted{}.IsGranted(ctx))
	require.False(t, Denied{}.IsGranted(ctx))
}
