package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/linemap/fonts"
	"github.com/ByLCY/linemap/layout"
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

var fontFileExts = []string{".ttf", ".otf", ".ttc", ".woff", ".woff2"}

// fontFace returns a face for font at size artboard units.
func (r *Renderer) fontFace(font layout.FontRef, size float64, col layout.Color) (*canvas.FontFace, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号无效: %g", size)
	}
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(size), colorFromLayout(col), style, canvas.FontNormal), nil
}

// ensureFontFamily resolves a font name once: injected data, then "embed:"
// fonts, then font files, then installed system fonts. A name that cannot be
// resolved is served by the embedded fallback from then on.
func (r *Renderer) ensureFontFamily(font layout.FontRef) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := font.Name
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	familyName, style := splitPostScriptName(font.Name)
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font.Name, familyName, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.logger.Warn("font not found, using embedded fallback", "font", font.Name, "fallback", fonts.Regular, "err", err)
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, name, familyName string, style canvas.FontStyle) error {
	if name == "" {
		return fmt.Errorf("字体名称为空")
	}
	if blob, ok := r.fontBlobs[name]; ok {
		return family.LoadFont(blob, 0, style)
	}
	if fonts.IsEmbedded(name) {
		data, err := fonts.Load(name)
		if err != nil {
			return err
		}
		return family.LoadFont(data, 0, style)
	}
	if isFontFile(name) {
		path := name
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取字体文件 %s 失败: %w", name, err)
		}
		return family.LoadFont(data, 0, style)
	}
	if err := family.LoadSystemFont(familyName, style); err == nil {
		return nil
	}
	return family.LoadSystemFont(name, style)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	family := canvas.NewFontFamily("linemap-fallback")
	if err := family.LoadFont(fonts.Fallback(), 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fontFileExts {
		if ext == e {
			return true
		}
	}
	return false
}

// splitPostScriptName splits names such as "Arial-BoldItalicMT" into a
// family ("Arial") and a style.
func splitPostScriptName(name string) (string, canvas.FontStyle) {
	if fonts.IsEmbedded(name) || isFontFile(name) {
		base := filepath.Base(strings.TrimPrefix(name, fonts.EmbedPrefix))
		return strings.TrimSuffix(base, filepath.Ext(base)), canvas.FontRegular
	}
	family, variant, _ := strings.Cut(name, "-")
	family = strings.TrimSuffix(family, "MT")
	variant = strings.TrimSuffix(strings.TrimSuffix(variant, "MT"), "PS")
	return family, parseFontStyle(variant)
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
