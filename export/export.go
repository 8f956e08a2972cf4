// Package export resolves where each diagram is written: the export root,
// the per-line folder from the location template and the file name.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ByLCY/linemap/binding"
	"github.com/ByLCY/linemap/errors"
	"github.com/ByLCY/linemap/linedata"
)

// DefaultLocationTemplate places every file directly in the export root.
const DefaultLocationTemplate = "{base}"

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespace  = regexp.MustCompile(`\s+`)
	driveLetter = regexp.MustCompile(`^[A-Za-z]:`)
	slashes     = regexp.MustCompile(`/+`)
)

// Sanitize makes s safe as a file or folder name: every \ / : * ? " < > |
// becomes "_", whitespace runs collapse to one space and the ends are trimmed.
func Sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsAbs reports whether dest is absolute in either Unix or Windows form.
func IsAbs(dest string) bool {
	return strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, `\`) || driveLetter.MatchString(dest)
}

// RootPath returns the folder exports are written under: the data root when
// destination is empty, destination itself when absolute, or destination
// joined under the data root.
func RootPath(dataRoot, destination string) string {
	dest := strings.TrimSpace(destination)
	switch {
	case dest == "":
		return dataRoot
	case IsAbs(dest):
		return dest
	default:
		return filepath.Join(dataRoot, dest)
	}
}

// ResolveExportRoot resolves the export root like RootPath and creates it.
func ResolveExportRoot(dataRoot, destination string) (string, error) {
	root := RootPath(dataRoot, destination)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportLocation, err, "could not create export destination").WithSource(root)
	}
	return root, nil
}

// LocationPath renders the location template for a line without touching
// the file system. {region}, {system} and {id} are sanitized; {base} is
// used as is.
func LocationPath(base, locationTemplate string, l *linedata.Line) string {
	tpl := locationTemplate
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultLocationTemplate
	}
	vars := binding.LocationVars(filepath.ToSlash(base), l)
	for _, k := range []string{"region", "system", "id"} {
		vars[k] = Sanitize(vars[k])
	}
	p := binding.RenderVars(tpl, vars)
	p = strings.ReplaceAll(p, `\`, "/")
	p = slashes.ReplaceAllString(p, "/")
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// UnknownLocationTokens lists the tokens of a location template that are
// not {base} {region} {system} or {id}.
func UnknownLocationTokens(locationTemplate string) []string {
	t, err := binding.Compile(locationTemplate)
	if err != nil {
		return nil
	}
	known := binding.LocationVars("", &linedata.Line{})
	var out []string
	for _, name := range t.Names() {
		if _, ok := known[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// ResolveLineFolder renders the location template for a line and creates
// the folder. Calling it again for the same line is harmless.
func ResolveLineFolder(base, locationTemplate string, l *linedata.Line) (string, error) {
	p := LocationPath(base, locationTemplate, l)
	if p == "" {
		return "", errors.New(errors.ErrCodeExportLocation, "empty export folder path").WithSource(l.Source)
	}
	folder := filepath.FromSlash(p)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportLocation, err, "could not create export folder %s", folder).WithSource(l.Source)
	}
	return folder, nil
}

// ResolveFileName renders the file name template for a line, without
// extension. An empty result falls back to "system-id".
func ResolveFileName(filenameTemplate string, l *linedata.Line) string {
	name := Sanitize(binding.Render(filenameTemplate, l))
	if name == "" {
		name = Sanitize(fmt.Sprintf("%s-%s", l.System, l.ID))
	}
	return name
}

// Write stores data as folder/name.ext.
func Write(folder, name, ext string, data []byte) (string, error) {
	path := filepath.Join(folder, name+"."+strings.TrimPrefix(ext, "."))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeExport, err, "could not write diagram").WithSource(path)
	}
	return path, nil
}
