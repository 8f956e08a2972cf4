package linedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/linemap/errors"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}


func TestDiscoverSortsAndSkipsConfiguration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/line.json", "{}")
	writeFile(t, root, "A/line.JSON", "{}")
	writeFile(t, root, "a/z.json", "{}")
	writeFile(t, root, "Configuration.JSON", "{}")
	writeFile(t, root, "a/configuration.json", "{}")
	writeFile(t, root, "notes.txt", "")

	files, err := Discover(root)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Len(t, rel, 3)
	assert.Equal(t, "b/line.json", rel[2])
	assert.ElementsMatch(t, []string{"A/line.JSON", "a/z.json"}, rel[:2])
}

func TestDiscoverEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "configuration.json", "{}")

	_, err := Discover(root)
	assert.True(t, errors.Is(err, errors.ErrCodeDataDiscovery))

	_, err = Discover(filepath.Join(root, "missing"))
	assert.True(t, errors.Is(err, errors.ErrCodeDataDiscovery))
}

func TestInferRegionSystem(t *testing.T) {
	tests := []struct {
		name        string
		root, file  string
		region, sys string
	}{
		{"two levels", "/data", "/data/Ontario/GO/lw.json", "Ontario", "GO"},
		{"deeper", "/data/", "/data/Ontario/GO/extra/lw.json", "Ontario", "GO"},
		{"one level", "/data", "/data/Ontario/lw.json", "Ontario", ""},
		{"at root", "/data", "/data/lw.json", "", ""},
		{"outside root", "/data", "/other/Ontario/GO/lw.json", "", ""},
		{"sibling prefix", "/data", "/database/Ontario/lw.json", "", ""},
		{"backslashes", `C:\maps\data`, `C:\maps\data\Quebec\STM\green.json`, "Quebec", "STM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, system := InferRegionSystem(tt.root, tt.file)
			assert.Equal(t, tt.region, region)
			assert.Equal(t, tt.sys, system)
		})
	}
}

func TestLoadAllInfersMissingMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Ontario/GO/lw.json", `{"line": {"id": "LW", "name": "Lakeshore West", "color": "#98002E", "stations": ["Union", "Hamilton"]}}`)
	writeFile(t, root, "Ontario/TTC/1.json", `{"region": "Toronto", "system": "TTC Subway", "line": {"id": "1", "name": "Yonge", "color": "#FFCC00", "stations": ["Finch", "Union"]}}`)

	lines, err := LoadAll(root)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "LW", lines[0].ID)
	assert.Equal(t, "Ontario", lines[0].Region)
	assert.Equal(t, "GO", lines[0].System)

	assert.Equal(t, "Toronto", lines[1].Region)
	assert.Equal(t, "TTC Subway", lines[1].System)
}

func TestLoadAllAbortsOnBadDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.json", `{"line": {"id": "A", "name": "A", "color": "#000000", "stations": ["x", "y"]}}`)
	bad := writeFile(t, root, "b.json", `{"line": {"id": "B", "name": "B", "color": "#000000", "stations": ["x"]}}`)

	_, err := LoadAll(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLineData))
	assert.Contains(t, err.Error(), bad)
}
