// Package layout computes the geometry of a linear transit diagram: track
// extents, adaptive terminal padding, station and label placement, canvas
// height, and title/subtitle alignment.
package layout

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/linemap/binding"
	"github.com/ByLCY/linemap/config"
	"github.com/ByLCY/linemap/errors"
	"github.com/ByLCY/linemap/linedata"
)

// MinUsableSpan is the narrowest track the adaptive padding may leave.
const MinUsableSpan = 200.0

// titleLineFactor estimates the title line height from its font size.
const titleLineFactor = 1.35

// Engine lays out diagrams for one configuration.
type Engine struct {
	cfg      *config.Config
	measurer Measurer
	logger   *log.Logger
	rotation float64
}

// New creates an Engine. The configuration is captured and must not change
// afterwards.
func New(cfg *config.Config, opts BuildOptions) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("layout: 缺少配置 Config")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少文字测量后端 Measurer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		cfg:      cfg,
		measurer: opts.Measurer,
		logger:   logger,
		rotation: Rotation(cfg),
	}, nil
}

// Rotation returns the label rotation in degrees: 90 for vertical labels,
// 90 + LABEL_TILT otherwise.
func Rotation(cfg *config.Config) float64 {
	if cfg.LabelMode == config.LabelVertical {
		return 90
	}
	return 90 + cfg.LabelTilt
}

// ExtraPadding turns a measured terminal overhang into extra padding on top
// of basePad, clamped to [0, maxExtra].
func ExtraPadding(overhang, margin, basePad, maxExtra float64) float64 {
	return math.Min(maxExtra, math.Max(0, overhang+margin-basePad))
}

// StationXs spreads n stations evenly over [left, right]. The first and last
// stations sit exactly on the ends.
func StationXs(left, right float64, n int) []float64 {
	if n < 2 {
		return nil
	}
	spacing := (right - left) / float64(n-1)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = left + float64(i)*spacing
	}
	xs[n-1] = right
	return xs
}

// TitleBandReserve is the vertical space kept free above the tallest label
// for the title band, or 0 when no title band is reserved.
func TitleBandReserve(cfg *config.Config) float64 {
	if !cfg.DrawTitle || !cfg.ReserveTitleBand {
		return 0
	}
	band := cfg.TitleFontSize*titleLineFactor + cfg.TitleBandPadding
	return band + cfg.TitleTopFromTop + cfg.TitleBandLineGap
}

// RequiredHeight returns the artboard height needed when the tallest text
// element tops out at maxTextTop.
func RequiredHeight(cfg *config.Config, maxTextTop float64) float64 {
	if !cfg.AutoHeight {
		return cfg.ArtboardHeight
	}
	return math.Ceil(math.Max(cfg.MinHeight, maxTextTop+TitleBandReserve(cfg)))
}

// Build lays out one line.
func (e *Engine) Build(l *linedata.Line) (*Diagram, error) {
	if l == nil {
		return nil, fmt.Errorf("layout: 线路数据为空")
	}
	labels := l.Labels()
	if len(labels) < 2 {
		return nil, errors.New(errors.ErrCodeLineData, "need 2+ stations to lay out").WithSource(l.Source)
	}
	cfg := e.cfg
	d := &Diagram{
		LineID:        l.ID,
		LineName:      l.Name,
		Width:         cfg.ArtboardWidth,
		BaselineY:     cfg.BaselineY,
		LabelRotation: e.rotation,
	}

	// 先根据末端站名的实际外扩量计算左右留白。
	d.PadLeft, d.PadRight = cfg.HPadding, cfg.HPadding
	if cfg.AutoPadTerminals {
		extraLeft, extraRight := e.terminalPadding(d, labels)
		d.PadLeft += extraLeft
		d.PadRight += extraRight
	}
	d.LineLeft = d.PadLeft
	d.LineRight = cfg.ArtboardWidth - d.PadRight
	if d.LineRight-d.LineLeft < MinUsableSpan {
		d.LineLeft = cfg.HPadding
		d.LineRight = cfg.ArtboardWidth - cfg.HPadding
	}
	d.Spacing = (d.LineRight - d.LineLeft) / float64(len(labels)-1)

	if cfg.LineOutlineEnabled {
		d.TrackOutline = &Segment{
			X1: d.LineLeft, Y1: cfg.BaselineY, X2: d.LineRight, Y2: cfg.BaselineY,
			Color: cfg.LineOutlineColor,
			Width: cfg.LineStroke + cfg.LineOutlineWidth*2,
		}
	}
	d.Track = Segment{
		X1: d.LineLeft, Y1: cfg.BaselineY, X2: d.LineRight, Y2: cfg.BaselineY,
		Color: l.Color,
		Width: cfg.LineStroke,
	}

	labelBottom := cfg.BaselineY + cfg.LineStroke/2 + cfg.LabelClearance
	labelFont := FontRef{Name: cfg.FontLabelName}
	white := White
	maxTextTop := 0.0
	for i, x := range StationXs(d.LineLeft, d.LineRight, len(labels)) {
		label := e.placeLabel(d, labels[i], labelFont, x, labelBottom)
		maxTextTop = math.Max(maxTextTop, label.Bounds.Y1)
		d.Stations = append(d.Stations, Station{
			Index:  i,
			Anchor: Point{X: x, Y: cfg.BaselineY},
			Marker: Circle{
				CX: x, CY: cfg.BaselineY, R: cfg.StationRadius,
				StrokeColor: cfg.StationOutline,
				StrokeWidth: cfg.StationStroke(),
				FillColor:   &white,
			},
			Label: label,
		})
	}

	if footer := e.placeFooter(d); footer != nil {
		d.Footer = footer
		maxTextTop = math.Max(maxTextTop, footer.Bounds.Y1)
	}

	// 画布高度只调整一次，背景随之重建。
	d.Height = RequiredHeight(cfg, maxTextTop)
	d.Background = Background{Width: d.Width, Height: d.Height, Color: White}

	var titleLeft *float64
	if cfg.DrawTitle {
		if title, left, ok := e.placeHeading(d, binding.Render(cfg.TitleTemplate, l), FontRef{Name: cfg.FontTitleName}, cfg.TitleFontSize, cfg.TitleColor, cfg.TitleTopFromTop, cfg.TitleLeft); ok {
			d.Title = title
			titleLeft = &left
		}
	}
	if cfg.DrawSubtitle {
		target := cfg.SubtitleLeft
		if titleLeft != nil {
			target = *titleLeft
		}
		if sub, _, ok := e.placeHeading(d, binding.Render(cfg.SubtitleTemplate, l), FontRef{Name: cfg.FontSubtitleName}, cfg.SubtitleFontSize, cfg.SubtitleColor, cfg.SubtitleTopFromTop, target); ok {
			d.Subtitle = sub
		}
	}
	return d, nil
}

// terminalPadding measures how far the terminal labels reach past their
// stations when the track spans the base padding.
func (e *Engine) terminalPadding(d *Diagram, labels []string) (extraLeft, extraRight float64) {
	cfg := e.cfg
	font := FontRef{Name: cfg.FontLabelName}
	basePad := cfg.HPadding

	lastX := cfg.ArtboardWidth - basePad
	_, right := e.labelOverhang(d, labels[len(labels)-1], font, lastX)
	extraRight = ExtraPadding(right, cfg.PadRightMargin, basePad, cfg.PadMaxExtra)

	if cfg.PadCheckLeft {
		left, _ := e.labelOverhang(d, labels[0], font, basePad)
		extraLeft = ExtraPadding(left, cfg.PadLeftMargin, basePad, cfg.PadMaxExtra)
	}
	return extraLeft, extraRight
}

// labelOverhang places a label at anchorX the way placeLabel does and
// reports how far its rotated box extends left and right of the anchor.
func (e *Engine) labelOverhang(d *Diagram, text string, font FontRef, anchorX float64) (left, right float64) {
	box := e.labelBox(d, text, font)
	minX := anchorX + e.cfg.LabelXNudge
	maxX := minX + box.W()
	return math.Max(0, anchorX-minX), math.Max(0, maxX-anchorX)
}

// placeLabel rotates a station label, snaps its rotated box's left edge to
// x (plus the configured nudge) and its bottom edge to bottom.
func (e *Engine) placeLabel(d *Diagram, text string, font FontRef, x, bottom float64) TextBox {
	box := e.labelBox(d, text, font)
	originX := x + e.cfg.LabelXNudge - box.X0
	originY := bottom - box.Y0
	return TextBox{
		Content:  text,
		Font:     font,
		FontSize: e.cfg.FontSize,
		Color:    Color{},
		X:        originX,
		Y:        originY,
		Rotation: e.rotation,
		Bounds:   box.Translate(originX, originY),
	}
}

// labelBox returns the rotated frame box of a label relative to its origin.
// It falls back to rotating the unrotated frame box, then to an empty box.
func (e *Engine) labelBox(d *Diagram, text string, font FontRef) Rect {
	size := e.cfg.FontSize
	box, err := e.measurer.MeasureRotated(text, font, size, e.rotation)
	if err == nil {
		return box
	}
	e.fallback(d, text, err)
	raw, err := e.measurer.Measure(text, font, size)
	if err == nil {
		return RotateRect(raw, e.rotation)
	}
	e.fallback(d, text, err)
	return Rect{}
}

// placeFooter centres the footer horizontally with its frame top at
// FOOTER_BOTTOM_MARGIN.
func (e *Engine) placeFooter(d *Diagram) *TextBox {
	cfg := e.cfg
	if cfg.FooterText == "" {
		return nil
	}
	font := FontRef{Name: cfg.FontFooterName}
	raw, err := e.measurer.Measure(cfg.FooterText, font, cfg.FooterFontSize)
	if err != nil {
		e.fallback(d, cfg.FooterText, err)
		raw = Rect{}
	}
	originX := (cfg.ArtboardWidth-raw.W())/2 - raw.X0
	originY := cfg.FooterBottomMargin - raw.Y1
	return &TextBox{
		Content:  cfg.FooterText,
		Font:     font,
		FontSize: cfg.FooterFontSize,
		Color:    cfg.FooterColor,
		X:        originX,
		Y:        originY,
		Bounds:   raw.Translate(originX, originY),
	}
}

// placeHeading places a left-aligned title or subtitle with its frame top at
// fromTop below the artboard top, then shifts it so its outlined left edge
// lands on targetLeft. It returns the achieved outlined left edge. Blank
// text is not placed.
func (e *Engine) placeHeading(d *Diagram, text string, font FontRef, size float64, col Color, fromTop, targetLeft float64) (*TextBox, float64, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, false
	}
	raw, err := e.measurer.Measure(text, font, size)
	rawOK := err == nil
	if !rawOK {
		e.fallback(d, text, err)
		raw = Rect{}
	}

	originY := d.Height - fromTop - raw.Y1
	originX := targetLeft - raw.X0

	leftNow := e.visualLeft(d, text, font, size, originX, raw, rawOK)
	originX += targetLeft - leftNow
	achieved := e.visualLeft(d, text, font, size, originX, raw, rawOK)

	return &TextBox{
		Content:  text,
		Font:     font,
		FontSize: size,
		Color:    col,
		X:        originX,
		Y:        originY,
		Bounds:   raw.Translate(originX, originY),
	}, achieved, true
}

// visualLeft is the left edge of text whose origin sits at originX: the
// outlined glyph box if it can be measured, else the frame box, else the
// frame's nominal left.
func (e *Engine) visualLeft(d *Diagram, text string, font FontRef, size, originX float64, raw Rect, rawOK bool) float64 {
	outlined, err := e.measurer.MeasureOutlined(text, font, size)
	if err == nil {
		return originX + outlined.X0
	}
	e.fallback(d, text, err)
	if rawOK {
		return originX + raw.X0
	}
	return originX
}

func (e *Engine) fallback(d *Diagram, text string, err error) {
	d.MeasurementFallbacks++
	e.logger.Debug("text measurement fallback",
		"line", d.LineID,
		"text", text,
		"err", errors.Wrap(errors.ErrCodeMeasurement, err, "measure text"))
}
