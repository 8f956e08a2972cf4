package canvasrenderer

import (
	"fmt"
	"math"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/linemap/layout"
)

// 测量结果与绘制共用同一字体面，单位为画布单位（像素）。

// Measure implements layout.Measurer. The frame box spans the advance width
// of the widest line, the ascent of the first line and the descent of the
// last.
func (r *Renderer) Measure(content string, font layout.FontRef, size float64) (layout.Rect, error) {
	face, err := r.fontFace(font, size, layout.Color{})
	if err != nil {
		return layout.Rect{}, err
	}
	return frameBox(face, splitLines(content)), nil
}

// MeasureOutlined implements layout.Measurer using the glyph outlines.
func (r *Renderer) MeasureOutlined(content string, font layout.FontRef, size float64) (layout.Rect, error) {
	face, err := r.fontFace(font, size, layout.Color{})
	if err != nil {
		return layout.Rect{}, err
	}
	lineHeight := face.Metrics().LineHeight

	var box layout.Rect
	inked := false
	for i, line := range splitLines(content) {
		p, _, err := face.ToPath(line)
		if err != nil {
			return layout.Rect{}, fmt.Errorf("文字转曲失败 %q: %w", line, err)
		}
		if p.Empty() {
			continue
		}
		b := p.Bounds()
		lineBox := layout.Rect{X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1}.Translate(0, -float64(i)*lineHeight)
		if !inked {
			box, inked = lineBox, true
			continue
		}
		box = box.Union(lineBox)
	}
	if !inked {
		return layout.Rect{}, fmt.Errorf("文本 %q 没有可见字形", content)
	}
	return box, nil
}

// MeasureRotated implements layout.Measurer by rotating the frame box
// counter-clockwise about the text origin.
func (r *Renderer) MeasureRotated(content string, font layout.FontRef, size, deg float64) (layout.Rect, error) {
	raw, err := r.Measure(content, font, size)
	if err != nil {
		return layout.Rect{}, err
	}
	p := canvas.Rectangle(raw.W(), raw.H()).Translate(raw.X0, raw.Y0)
	b := p.Transform(canvas.Identity.Rotate(deg)).Bounds()
	return layout.Rect{X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1}, nil
}

func frameBox(face *canvas.FontFace, lines []string) layout.Rect {
	m := face.Metrics()
	width := 0.0
	for _, line := range lines {
		width = math.Max(width, face.TextWidth(line))
	}
	return layout.Rect{
		X0: 0,
		Y0: -math.Abs(m.Descent) - float64(len(lines)-1)*m.LineHeight,
		X1: width,
		Y1: m.Ascent,
	}
}
