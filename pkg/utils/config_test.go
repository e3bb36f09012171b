package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, ".", ResolvePath(""))
	assert.Equal(t, filepath.Join(home, "conf"), ResolvePath("~/conf"))
	assert.Equal(t, "/etc/landingpress", ResolvePath("/etc/landingpress"))
	assert.True(t, filepath.IsAbs(ResolvePath("relative/dir")))
}
