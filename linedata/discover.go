package linedata

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ByLCY/linemap/errors"
)

// ConfigFileName is skipped during discovery (case-insensitive).
const ConfigFileName = "configuration.json"

// Discover returns every JSON document under root, recursively, except the
// configuration file, sorted case-insensitively by full path.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataDiscovery, err, "cannot read data folder").WithSource(root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeDataDiscovery, "data root is not a folder").WithSource(root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if name == ConfigFileName || !strings.HasSuffix(name, ".json") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataDiscovery, err, "walk data folder").WithSource(root)
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeDataDiscovery, "no line JSON files found").WithSource(root)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

// InferRegionSystem derives region and system from the first two folder
// segments between root and the folder holding file. Either result may be
// empty. Both '/' and '\' are accepted as separators.
func InferRegionSystem(root, file string) (region, system string) {
	base := cleanSlashes(root)
	dir := path.Dir(cleanSlashes(file))

	var tail string
	switch {
	case dir == base:
		return "", ""
	case base == "/":
		tail = strings.TrimPrefix(dir, "/")
	case strings.HasPrefix(dir, base+"/"):
		tail = dir[len(base)+1:]
	default:
		return "", ""
	}

	parts := strings.Split(tail, "/")
	if len(parts) >= 1 {
		region = parts[0]
	}
	if len(parts) >= 2 {
		system = parts[1]
	}
	return region, system
}

// LoadAll discovers and loads every line document under root, filling empty
// region/system from the folder structure. The first failure aborts.
func LoadAll(root string) ([]*Line, error) {
	files, err := Discover(root)
	if err != nil {
		return nil, err
	}
	lines := make([]*Line, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLineData, err, "read line document").WithSource(f)
		}
		l, err := Load(data, f)
		if err != nil {
			return nil, err
		}
		region, system := InferRegionSystem(root, f)
		if l.Region == "" {
			l.Region = region
		}
		if l.System == "" {
			l.System = system
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func cleanSlashes(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
