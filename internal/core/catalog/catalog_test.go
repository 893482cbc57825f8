package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	name, ok := c.PlatformName(1)
	require.True(t, ok)
	require.Equal(t, "ios", name)

	name, ok = c.PlatformName(2)
	require.True(t, ok)
	require.Equal(t, "android", name)

	require.True(t, c.ValidAction(1))
	require.True(t, c.ValidAction(2))
	require.False(t, c.ValidAction(3))
	require.False(t, c.ValidPlatform(0))

	require.Equal(t, []string{"view", "atc"}, c.ExpectedActions())
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		assertions func(t *testing.T, c *Catalog, err error)
	}{
		{
			name: "full catalog",
			yaml: `
platforms:
  - id: 1
    name: ios
  - id: 2
    name: android
actions:
  - id: 1
    name: view
  - id: 2
    name: atc
expected_actions: [view, atc]
`,
			assertions: func(t *testing.T, c *Catalog, err error) {
				require.NoError(t, err)
				name, ok := c.ActionName(2)
				require.True(t, ok)
				require.Equal(t, "atc", name)
				require.Equal(t, []string{"view", "atc"}, c.ExpectedActions())
			},
		},
		{
			name: "expected actions default to all action names sorted",
			yaml: `
platforms:
  - id: 1
    name: ios
actions:
  - id: 1
    name: view
  - id: 2
    name: atc
`,
			assertions: func(t *testing.T, c *Catalog, err error) {
				require.NoError(t, err)
				require.Equal(t, []string{"atc", "view"}, c.ExpectedActions())
			},
		},
		{
			name: "duplicate platform id rejected",
			yaml: `
platforms:
  - id: 1
    name: ios
  - id: 1
    name: android
actions:
  - id: 1
    name: view
`,
			assertions: func(t *testing.T, c *Catalog, err error) {
				require.Error(t, err)
				require.ErrorContains(t, err, "duplicate id")
			},
		},
		{
			name: "empty actions rejected",
			yaml: `
platforms:
  - id: 1
    name: ios
`,
			assertions: func(t *testing.T, c *Catalog, err error) {
				require.Error(t, err)
				require.ErrorContains(t, err, "must not be empty")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o600))

			c, err := LoadFile(path)
			tc.assertions(t, c, err)
		})
	}
}

func TestLoadFile_EmptyPathReturnsDefault(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	require.Equal(t, Default().ExpectedActions(), c.ExpectedActions())
}
