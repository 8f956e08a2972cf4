package layout

import "github.com/charmbracelet/log"

// BuildOptions 配置布局阶段所需的依赖，例如文字测量后端。
type BuildOptions struct {
	Measurer Measurer
	// Logger receives measurement fallbacks at debug level. Nil discards them.
	Logger *log.Logger
}

// Measurer reports text extents. Every box is relative to the text origin:
// the left end of the first baseline, Y up. Content may contain "\n".
type Measurer interface {
	// Measure returns the nominal frame box built from advance widths and
	// font ascent/descent.
	Measure(content string, font FontRef, size float64) (Rect, error)
	// MeasureOutlined returns the box of the glyph outlines, which differs
	// from the frame box by the glyph side bearings.
	MeasureOutlined(content string, font FontRef, size float64) (Rect, error)
	// MeasureRotated returns the frame box after rotating the text
	// counter-clockwise by deg degrees about its origin.
	MeasureRotated(content string, font FontRef, size, deg float64) (Rect, error)
}
