package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/linemap/errors"
)

// Values is a flat option mapping: option name → value. Nested mappings
// (colors) are map[string]any.
type Values map[string]any

// Document formats accepted by ParseDocument.
const (
	DocJSON = "json"
	DocYAML = "yaml"
	DocTOML = "toml"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// envelopeKey wraps the option mapping in some configuration documents.
const envelopeKey = "CFG"

var fontKeys = []string{"FONT_LABEL_NAME", "FONT_TITLE_NAME", "FONT_SUBTITLE_NAME", "FONT_FOOTER_NAME"}

// FormatForPath picks the document format from a file extension; anything
// unknown is read as JSON.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DocYAML
	case ".toml":
		return DocTOML
	default:
		return DocJSON
	}
}

// ParseDocument decodes an override document. A leading byte-order mark is
// ignored, and a {"CFG": {...}} envelope is unwrapped.
func ParseDocument(data []byte, format string) (Values, error) {
	raw := bytes.TrimSpace(data)
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeConfig, "configuration document is empty")
	}

	var doc map[string]any
	var err error
	switch format {
	case DocYAML:
		err = yaml.Unmarshal(raw, &doc)
	case DocTOML:
		err = toml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "invalid %s configuration", strings.ToUpper(format))
	}
	if doc == nil {
		return nil, errors.New(errors.ErrCodeConfig, "configuration document is not a mapping")
	}

	v := normalize(doc).(map[string]any)
	if inner, ok := v[envelopeKey].(map[string]any); ok {
		return Values(inner), nil
	}
	return Values(v), nil
}

// Merge deep-merges override onto a copy of defaults and reports the override
// keys that defaults does not know. Unknown keys are still applied. Empty font
// names fall back to FallbackFont.
func Merge(defaults, override Values) (Values, []string) {
	merged := Values(deepCopy(map[string]any(defaults)))
	mergeDeep(merged, override)

	for _, k := range fontKeys {
		if s, _ := merged[k].(string); strings.TrimSpace(s) == "" {
			merged[k] = FallbackFont
		}
	}

	var unknown []string
	for k := range override {
		if _, ok := defaults[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return merged, unknown
}

// Resolve parses an override document and merges it onto defaults.
func Resolve(defaults Values, document []byte, format string) (Values, []string, error) {
	override, err := ParseDocument(document, format)
	if err != nil {
		return nil, nil, err
	}
	merged, unknown := Merge(defaults, override)
	return merged, unknown, nil
}

// Load reads a configuration file, merges it onto the built-in defaults and
// decodes the result. The returned keys are the unknown options found in the
// file; callers should warn about them.
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeConfig, err, "read configuration").WithSource(path)
	}
	merged, unknown, err := Resolve(DefaultValues(), data, FormatForPath(path))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, nil, e.WithSource(path)
		}
		return nil, nil, err
	}
	cfg, err := Decode(merged)
	if err != nil {
		return nil, unknown, err
	}
	return cfg, unknown, nil
}

func mergeDeep(base map[string]any, overrides map[string]any) {
	for k, v := range overrides {
		ov, okOverride := v.(map[string]any)
		bv, okBase := base[k].(map[string]any)
		if okOverride && okBase {
			mergeDeep(bv, ov)
			continue
		}
		base[k] = deepCopyValue(v)
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// normalize turns the decoder-specific container types into map[string]any
// and []any so merging treats every format alike.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
