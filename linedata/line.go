// Package linedata loads per-line JSON documents into normalized Line records
// and discovers them under a data root.
package linedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/linemap/config"
	"github.com/ByLCY/linemap/errors"
)

// LineBreak separates the lines of a multi-line name.
const LineBreak = "\n"

var hexColorPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// Line is one transit line to render.
type Line struct {
	Region   string       `json:"region"`
	System   string       `json:"system"`
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Years    string       `json:"years"` // always empty today, kept for {years} tokens
	Color    config.Color `json:"color"`
	Stations []Station    `json:"stations"`
	Source   string       `json:"source"`
}

// Station is a normalized station entry. Icons are not used by the layout and
// are carried through untouched for the renderer.
type Station struct {
	Text  string            `json:"text"`
	Icons []json.RawMessage `json:"icons"`
}

// Labels returns the station texts in order.
func (l *Line) Labels() []string {
	out := make([]string, len(l.Stations))
	for i, st := range l.Stations {
		out[i] = st.Text
	}
	return out
}

// Label identifies the line in diagnostics.
func (l *Line) Label() string {
	if l.ID != "" {
		return l.ID
	}
	return l.Name
}

type document struct {
	Region any             `json:"region"`
	System any             `json:"system"`
	Line   json.RawMessage `json:"line"`
}

type lineObject struct {
	ID       any             `json:"id"`
	Name     any             `json:"name"`
	Color    any             `json:"color"`
	Stations json.RawMessage `json:"stations"`
}

// Load parses one line document. source names the document in errors.
func Load(data []byte, source string) (*Line, error) {
	raw := bytes.TrimSpace(data)
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLineData, err, "invalid JSON").WithSource(source)
	}
	if !isObject(doc.Line) {
		return nil, errors.New(errors.ErrCodeLineData, "missing 'line' object").WithSource(source)
	}
	var obj lineObject
	if err := json.Unmarshal(doc.Line, &obj); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLineData, err, "invalid 'line' object").WithSource(source)
	}

	id := strings.TrimSpace(scalarText(obj.ID))
	name := multilineText(obj.Name)
	colorHex := strings.TrimSpace(scalarText(obj.Color))

	if id == "" {
		return nil, errors.New(errors.ErrCodeLineData, "missing line.id").WithSource(source)
	}
	if name == "" {
		return nil, errors.New(errors.ErrCodeLineData, "missing line.name").WithSource(source)
	}
	if colorHex == "" {
		return nil, errors.New(errors.ErrCodeLineData, "missing line.color").WithSource(source)
	}

	var entries []json.RawMessage
	if !isArray(obj.Stations) || json.Unmarshal(obj.Stations, &entries) != nil || len(entries) < 2 {
		return nil, errors.New(errors.ErrCodeLineData, "line.stations must be an array with 2+ entries").WithSource(source)
	}

	stations := make([]Station, 0, len(entries))
	for _, e := range entries {
		st := normalizeStation(e)
		if strings.TrimSpace(st.Text) == "" {
			continue
		}
		stations = append(stations, st)
	}
	if len(stations) < 2 {
		return nil, errors.New(errors.ErrCodeLineData, "need 2+ valid stations").WithSource(source)
	}

	return &Line{
		Region:   strings.TrimSpace(scalarText(doc.Region)),
		System:   strings.TrimSpace(scalarText(doc.System)),
		ID:       id,
		Name:     name,
		Years:    "",
		Color:    ParseHexColor(colorHex),
		Stations: stations,
		Source:   source,
	}, nil
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB". Anything else yields black.
func ParseHexColor(hex string) config.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if !hexColorPattern.MatchString(hex) {
		return config.Color{}
	}
	v, _ := strconv.ParseUint(hex, 16, 32)
	return config.Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

// normalizeStation accepts a bare string or {name, icons}. Other shapes
// produce an empty station that the caller drops.
func normalizeStation(raw json.RawMessage) Station {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Station{Text: s, Icons: []json.RawMessage{}}
	}
	if !isObject(raw) {
		return Station{Icons: []json.RawMessage{}}
	}
	var obj struct {
		Name  any             `json:"name"`
		Icons json.RawMessage `json:"icons"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Station{Icons: []json.RawMessage{}}
	}
	icons := []json.RawMessage{}
	if isArray(obj.Icons) {
		_ = json.Unmarshal(obj.Icons, &icons)
	}
	return Station{Text: multilineText(obj.Name), Icons: icons}
}

// multilineText collapses a name given as a list of strings into one
// multi-line string.
func multilineText(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, p := range list {
			parts[i] = scalarText(p)
		}
		return strings.Join(parts, LineBreak)
	}
	return scalarText(v)
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
