package layout

import "github.com/ByLCY/linemap/config"

// 该文件定义布局结果，供渲染器与调试 JSON 共用。
// All coordinates share one space: origin at the bottom-left corner of the
// artboard, Y growing upward.

// Color 采用 0-255 的 RGB 数值。
type Color = config.Color

// White is the background fill and station marker fill.
var White = Color{R: 255, G: 255, B: 255}

// FontRef names a font. The renderer resolves it to a system font, a font
// file, or the embedded fallback.
type FontRef struct {
	Name string `json:"name"`
}

// Point is a position in artboard coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Diagram is the complete geometry of one line diagram.
type Diagram struct {
	LineID   string `json:"lineId"`
	LineName string `json:"lineName"`

	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	BaselineY float64 `json:"baselineY"`

	PadLeft   float64 `json:"padLeft"`
	PadRight  float64 `json:"padRight"`
	LineLeft  float64 `json:"lineLeft"`
	LineRight float64 `json:"lineRight"`
	Spacing   float64 `json:"spacing"`

	LabelRotation float64 `json:"labelRotation"`

	Background   Background `json:"background"`
	TrackOutline *Segment   `json:"trackOutline,omitempty"`
	Track        Segment    `json:"track"`
	Stations     []Station  `json:"stations"`

	Footer   *TextBox `json:"footer,omitempty"`
	Title    *TextBox `json:"title,omitempty"`
	Subtitle *TextBox `json:"subtitle,omitempty"`

	// MeasurementFallbacks counts measurements that failed and were replaced
	// by a coarser estimate.
	MeasurementFallbacks int `json:"measurementFallbacks,omitempty"`
}

// Background is the white rectangle covering the whole artboard.
type Background struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  Color   `json:"color"`
}

// Segment is a stroked straight line with round caps.
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// Circle 表示一个圆。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Station is one placed station: its marker on the track and its label.
type Station struct {
	Index  int     `json:"index"`
	Anchor Point   `json:"anchor"`
	Marker Circle  `json:"marker"`
	Label  TextBox `json:"label"`
}

// TextBox is a placed text element. The text origin (X, Y) is the left end
// of the first baseline; further lines stack downward. Rotation turns the
// text counter-clockwise about its origin.
type TextBox struct {
	Content  string  `json:"content"`
	Font     FontRef `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation,omitempty"`
	// Bounds is the frame box in artboard coordinates, after rotation.
	Bounds Rect `json:"bounds"`
}
