// Package fonts 提供内置的兜底字体（Go fonts），在系统字体缺失时使用。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// EmbedPrefix marks a font name that refers to an embedded font, e.g.
// "embed:goregular".
const EmbedPrefix = "embed:"

// Regular is the name of the default embedded face.
const Regular = "goregular"

var embedded = map[string][]byte{
	Regular:  goregular.TTF,
	"gobold": gobold.TTF,
}

// IsEmbedded reports whether name refers to an embedded font.
func IsEmbedded(name string) bool {
	return strings.HasPrefix(name, EmbedPrefix)
}

// Load 返回内置字体的字节数据，name 可写为 "embed:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, EmbedPrefix))
	data, ok := embedded[key]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在（可用：%s）", key, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Fallback returns the bytes of the default embedded face.
func Fallback() []byte {
	return goregular.TTF
}

// Names lists the embedded fonts.
func Names() []string {
	out := make([]string, 0, len(embedded))
	for name := range embedded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
