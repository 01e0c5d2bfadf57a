package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_ContainsCoreTemplates(t *testing.T) {
	c := Builtin()

	assert.Equal(t, 8, c.Len())

	tmpl, ok := c.Get("Serverless Application (AWS)")
	require.True(t, ok)
	assert.Equal(t, "serverless", tmpl.ArchitectureType)
	assert.Equal(t, "AWS", tmpl.CloudProvider)
	assert.Contains(t, tmpl.Components, "Lambda")
}

func TestNames_Sorted(t *testing.T) {
	names := Builtin().Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Len(t, names, 8)
}

func TestGet_Unknown(t *testing.T) {
	_, ok := Builtin().Get("No Such Template")
	assert.False(t, ok)
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Len())
}

func TestLoad_Overlay(t *testing.T) {
	overlay := `templates:
  - name: Edge CDN (Custom)
    description: Edge-first content delivery with origin shielding
    architecture_type: network
    cloud_provider: Generic
    components: CDN, Origin, WAF
  - name: Serverless Application (AWS)
    description: Overridden serverless description
    architecture_type: serverless
    cloud_provider: AWS
`
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	// One new template added, one built-in overridden.
	assert.Equal(t, 9, c.Len())

	added, ok := c.Get("Edge CDN (Custom)")
	require.True(t, ok)
	assert.Equal(t, "network", added.ArchitectureType)

	overridden, ok := c.Get("Serverless Application (AWS)")
	require.True(t, ok)
	assert.Equal(t, "Overridden serverless description", overridden.Description)
}

func TestLoad_OverlayErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "templates:\n  - description: no name here\n"},
		{"missing description", "templates:\n  - name: Incomplete\n"},
		{"invalid yaml", "templates: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
