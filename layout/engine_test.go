package layout

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/linemap/config"
	"github.com/ByLCY/linemap/linedata"
)

const (
	advance     = 0.5 // per rune, as a fraction of the font size
	sideBearing = 1.5
)

// fakeMeasurer is a deterministic Measurer: every rune advances by
// advance·size, lines stack by 1.2·size, and glyph outlines start
// sideBearing units right of the frame.
type fakeMeasurer struct {
	failRaw, failOutlined, failRotated bool
	calls                              int
}

func (f *fakeMeasurer) Measure(content string, _ FontRef, size float64) (Rect, error) {
	f.calls++
	if f.failRaw {
		return Rect{}, fmt.Errorf("no render pass")
	}
	lines := strings.Split(content, "\n")
	longest := 0
	for _, l := range lines {
		longest = max(longest, len([]rune(l)))
	}
	return Rect{
		X0: 0,
		Y0: -0.2*size - float64(len(lines)-1)*1.2*size,
		X1: float64(longest) * advance * size,
		Y1: 0.8 * size,
	}, nil
}

func (f *fakeMeasurer) MeasureOutlined(content string, font FontRef, size float64) (Rect, error) {
	if f.failOutlined {
		return Rect{}, fmt.Errorf("outline failed")
	}
	raw, err := f.Measure(content, font, size)
	if err != nil {
		return Rect{}, err
	}
	raw.X0 += sideBearing
	return raw, nil
}

func (f *fakeMeasurer) MeasureRotated(content string, font FontRef, size, deg float64) (Rect, error) {
	if f.failRotated {
		return Rect{}, fmt.Errorf("rotation failed")
	}
	raw, err := f.Measure(content, font, size)
	if err != nil {
		return Rect{}, err
	}
	return RotateRect(raw, deg), nil
}

func newLine(stations ...string) *linedata.Line {
	l := &linedata.Line{ID: "T1", Name: "Test Line", System: "Test", Color: config.Color{R: 200}}
	for _, s := range stations {
		l.Stations = append(l.Stations, linedata.Station{Text: s})
	}
	return l
}

func build(t *testing.T, cfg config.Config, m Measurer, l *linedata.Line) *Diagram {
	t.Helper()
	e, err := New(&cfg, BuildOptions{Measurer: m})
	require.NoError(t, err)
	d, err := e.Build(l)
	require.NoError(t, err)
	return d
}

func stationXs(d *Diagram) []float64 {
	xs := make([]float64, len(d.Stations))
	for i, st := range d.Stations {
		xs[i] = st.Anchor.X
	}
	return xs
}

func TestNewRequiresMeasurer(t *testing.T) {
	cfg := config.Defaults()
	_, err := New(&cfg, BuildOptions{})
	assert.Error(t, err)
	_, err = New(nil, BuildOptions{Measurer: &fakeMeasurer{}})
	assert.Error(t, err)
}

func TestBaseSpacingExample(t *testing.T) {
	cfg := config.Defaults()
	cfg.AutoPadTerminals = false

	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B", "C"))

	assert.Equal(t, 660.0, d.Spacing)
	assert.Equal(t, []float64{90, 750, 1410}, stationXs(d))
	assert.Equal(t, 90.0, d.PadLeft)
	assert.Equal(t, 90.0, d.PadRight)
}

func TestShortTerminalLabelNeedsNoExtraPadding(t *testing.T) {
	d := build(t, config.Defaults(), &fakeMeasurer{}, newLine("A", "B", "C"))
	assert.Equal(t, []float64{90, 750, 1410}, stationXs(d))
}

func TestLongTerminalLabelWidensRightPadding(t *testing.T) {
	cfg := config.Defaults()
	last := strings.Repeat("x", 60)
	m := &fakeMeasurer{}

	d := build(t, cfg, m, newLine("A", "B", last))

	raw, _ := m.Measure(last, FontRef{}, cfg.FontSize)
	overhang := RotateRect(raw, 70).W() + cfg.LabelXNudge
	extra := overhang + cfg.PadRightMargin - cfg.HPadding
	require.Greater(t, extra, 0.0)
	require.Less(t, extra, cfg.PadMaxExtra)

	assert.InDelta(t, cfg.HPadding+extra, d.PadRight, 1e-9)
	assert.InDelta(t, cfg.ArtboardWidth-cfg.HPadding-extra, d.LineRight, 1e-9)
	assert.Equal(t, cfg.HPadding, d.LineLeft)

	// the last label now ends PAD_RIGHT_MARGIN short of the artboard edge
	lastLabel := d.Stations[2].Label
	assert.InDelta(t, cfg.ArtboardWidth-cfg.PadRightMargin, lastLabel.Bounds.X1, 1e-9)
}

func TestExtraPaddingClampedAndMonotonic(t *testing.T) {
	const maxExtra = 260.0
	prev := -1.0
	for overhang := 0.0; overhang <= 600; overhang += 7.5 {
		got := ExtraPadding(overhang, 8, 90, maxExtra)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, maxExtra)
		assert.GreaterOrEqual(t, got, prev, "overhang %g", overhang)
		prev = got
	}
	assert.Equal(t, 0.0, ExtraPadding(50, 8, 90, maxExtra))
	assert.Equal(t, 18.0, ExtraPadding(100, 8, 90, maxExtra))
	assert.Equal(t, maxExtra, ExtraPadding(1000, 8, 90, maxExtra))
}

func TestPaddingClampedAtMaxExtra(t *testing.T) {
	cfg := config.Defaults()
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", strings.Repeat("W", 400)))
	assert.Equal(t, cfg.HPadding+cfg.PadMaxExtra, d.PadRight)
}

func TestDegenerateWidthGuard(t *testing.T) {
	cfg := config.Defaults()
	cfg.ArtboardWidth = 500

	d := build(t, cfg, &fakeMeasurer{}, newLine("A", strings.Repeat("W", 400)))

	assert.Equal(t, 90.0, d.LineLeft)
	assert.Equal(t, 410.0, d.LineRight)
	assert.Equal(t, 320.0, d.Spacing)
}

func TestLeftPaddingOnlyWhenEnabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.HPadding = 2

	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))
	assert.Equal(t, 2.0, d.PadLeft)

	cfg.PadCheckLeft = true
	d = build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))
	// rotated boxes start at the nudge, 6 units left of the anchor
	assert.InDelta(t, 2+(6+8-2), d.PadLeft, 1e-9)
}

func TestStationXsEndpointsAndSpacing(t *testing.T) {
	for n := 2; n <= 40; n++ {
		left, right := 97.3, 1333.7
		xs := StationXs(left, right, n)
		require.Len(t, xs, n)
		spacing := (right - left) / float64(n-1)

		assert.Equal(t, left, xs[0])
		assert.Equal(t, right, xs[n-1])
		for i := 1; i < n; i++ {
			assert.InDelta(t, spacing, xs[i]-xs[i-1], 1e-9)
		}
	}
	assert.Nil(t, StationXs(0, 10, 1))
}

func TestLabelPlacement(t *testing.T) {
	cfg := config.Defaults()
	cfg.AutoPadTerminals = false
	d := build(t, cfg, &fakeMeasurer{}, newLine("Union", "Exhibition\nGO", "Mimico"))

	bottom := cfg.BaselineY + cfg.LineStroke/2 + cfg.LabelClearance
	for _, st := range d.Stations {
		assert.InDelta(t, st.Anchor.X+cfg.LabelXNudge, st.Label.Bounds.X0, 1e-9)
		assert.InDelta(t, bottom, st.Label.Bounds.Y0, 1e-9)
		assert.Equal(t, 70.0, st.Label.Rotation)
		assert.Equal(t, cfg.FontSize, st.Label.FontSize)
		assert.Equal(t, cfg.FontLabelName, st.Label.Font.Name)
	}
	assert.Equal(t, "Exhibition\nGO", d.Stations[1].Label.Content)
}

func TestMarkersAndTrack(t *testing.T) {
	cfg := config.Defaults()
	cfg.LineOutlineEnabled = true
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))

	m := d.Stations[0].Marker
	assert.Equal(t, cfg.StationRadius, m.R)
	assert.Equal(t, 6.0, m.StrokeWidth)
	assert.Equal(t, cfg.BaselineY, m.CY)
	require.NotNil(t, m.FillColor)
	assert.Equal(t, White, *m.FillColor)

	assert.Equal(t, config.Color{R: 200}, d.Track.Color)
	assert.Equal(t, cfg.LineStroke, d.Track.Width)
	require.NotNil(t, d.TrackOutline)
	assert.Equal(t, cfg.LineStroke+2*cfg.LineOutlineWidth, d.TrackOutline.Width)
	assert.Equal(t, d.Track.X1, d.TrackOutline.X1)
}

func TestRotation(t *testing.T) {
	cfg := config.Defaults()
	assert.Equal(t, 70.0, Rotation(&cfg))
	cfg.LabelTilt = 15
	assert.Equal(t, 105.0, Rotation(&cfg))
	cfg.LabelMode = config.LabelVertical
	assert.Equal(t, 90.0, Rotation(&cfg))
}

func TestRequiredHeight(t *testing.T) {
	cfg := config.Defaults()
	reserve := TitleBandReserve(&cfg)
	assert.InDelta(t, 44*1.35+10+18+10, reserve, 1e-9)

	prev := 0.0
	for top := 0.0; top < 800; top += 13 {
		h := RequiredHeight(&cfg, top)
		assert.GreaterOrEqual(t, h, cfg.MinHeight)
		assert.GreaterOrEqual(t, h, prev)
		assert.Equal(t, math.Ceil(h), h)
		prev = h
	}
	assert.Equal(t, cfg.MinHeight, RequiredHeight(&cfg, 10))
	assert.Equal(t, math.Ceil(400+reserve), RequiredHeight(&cfg, 400))

	cfg.ReserveTitleBand = false
	assert.Equal(t, 400.0, RequiredHeight(&cfg, 400))

	cfg.AutoHeight = false
	assert.Equal(t, cfg.ArtboardHeight, RequiredHeight(&cfg, 4000))
}

func TestDynamicHeightFollowsTallestLabel(t *testing.T) {
	cfg := config.Defaults()
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", strings.Repeat("m", 80), "C"))

	top := 0.0
	for _, st := range d.Stations {
		top = math.Max(top, st.Label.Bounds.Y1)
	}
	assert.Greater(t, top+TitleBandReserve(&cfg), cfg.MinHeight)
	assert.Equal(t, RequiredHeight(&cfg, top), d.Height)
	assert.Equal(t, Background{Width: cfg.ArtboardWidth, Height: d.Height, Color: White}, d.Background)
}

func TestFooterCentred(t *testing.T) {
	cfg := config.Defaults()
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))

	require.NotNil(t, d.Footer)
	assert.InDelta(t, cfg.ArtboardWidth/2, (d.Footer.Bounds.X0+d.Footer.Bounds.X1)/2, 1e-9)
	assert.InDelta(t, cfg.FooterBottomMargin, d.Footer.Bounds.Y1, 1e-9)
	assert.Equal(t, cfg.FooterColor, d.Footer.Color)

	cfg.FooterText = ""
	d = build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))
	assert.Nil(t, d.Footer)
}

func TestTitleSnapsOutlinedLeftEdge(t *testing.T) {
	cfg := config.Defaults()
	cfg.DrawSubtitle = true
	cfg.SubtitleLeft = 30
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))

	require.NotNil(t, d.Title)
	assert.Equal(t, "Test Line", d.Title.Content)
	assert.InDelta(t, cfg.TitleLeft, d.Title.X+sideBearing, 1e-9)
	assert.InDelta(t, d.Height-cfg.TitleTopFromTop, d.Title.Bounds.Y1, 1e-9)

	require.NotNil(t, d.Subtitle)
	assert.Equal(t, "Test", d.Subtitle.Content)
	assert.InDelta(t, cfg.TitleLeft, d.Subtitle.X+sideBearing, 1e-9, "subtitle aligns to the title")
	assert.InDelta(t, d.Height-cfg.SubtitleTopFromTop, d.Subtitle.Bounds.Y1, 1e-9)
}

func TestSubtitleWithoutTitleUsesOwnMargin(t *testing.T) {
	cfg := config.Defaults()
	cfg.DrawTitle = false
	cfg.DrawSubtitle = true
	cfg.SubtitleLeft = 30
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))

	assert.Nil(t, d.Title)
	require.NotNil(t, d.Subtitle)
	assert.InDelta(t, 30, d.Subtitle.X+sideBearing, 1e-9)
}

func TestBlankTitleIsSkipped(t *testing.T) {
	cfg := config.Defaults()
	cfg.TitleTemplate = "{years}"
	cfg.DrawSubtitle = true
	cfg.SubtitleLeft = 30
	d := build(t, cfg, &fakeMeasurer{}, newLine("A", "B"))

	assert.Nil(t, d.Title)
	require.NotNil(t, d.Subtitle)
	assert.InDelta(t, 30, d.Subtitle.X+sideBearing, 1e-9)
}

func TestMeasurementFallbacks(t *testing.T) {
	cfg := config.Defaults()
	cfg.AutoPadTerminals = false

	// no outlines: the frame's left edge is snapped instead
	d := build(t, cfg, &fakeMeasurer{failOutlined: true}, newLine("A", "B"))
	require.NotNil(t, d.Title)
	assert.InDelta(t, cfg.TitleLeft, d.Title.X, 1e-9)
	assert.Equal(t, 2, d.MeasurementFallbacks)

	// no rotated measurement: the raw box is rotated instead
	d = build(t, cfg, &fakeMeasurer{failRotated: true}, newLine("A", "B"))
	assert.InDelta(t, d.Stations[0].Anchor.X+cfg.LabelXNudge, d.Stations[0].Label.Bounds.X0, 1e-9)
	assert.Equal(t, 2, d.MeasurementFallbacks)

	// nothing measures: layout still completes
	d = build(t, cfg, &fakeMeasurer{failRaw: true, failOutlined: true, failRotated: true}, newLine("A", "B", "C"))
	assert.Equal(t, []float64{90, 750, 1410}, stationXs(d))
	assert.Equal(t, cfg.MinHeight, d.Height)
	require.NotNil(t, d.Title)
	assert.InDelta(t, cfg.TitleLeft, d.Title.X, 1e-9)
	assert.Positive(t, d.MeasurementFallbacks)
}

func TestBuildRejectsShortLine(t *testing.T) {
	cfg := config.Defaults()
	e, err := New(&cfg, BuildOptions{Measurer: &fakeMeasurer{}})
	require.NoError(t, err)

	_, err = e.Build(newLine("Only"))
	assert.Error(t, err)
	_, err = e.Build(nil)
	assert.Error(t, err)
}

func TestDiagramsAreIndependent(t *testing.T) {
	cfg := config.Defaults()
	e, err := New(&cfg, BuildOptions{Measurer: &fakeMeasurer{}})
	require.NoError(t, err)

	first, err := e.Build(newLine("A", "B", "C"))
	require.NoError(t, err)
	_, err = e.Build(newLine("A", strings.Repeat("W", 300)))
	require.NoError(t, err)
	again, err := e.Build(newLine("A", "B", "C"))
	require.NoError(t, err)

	assert.Equal(t, first, again)
}

func TestRotateRect(t *testing.T) {
	r := Rect{X0: 0, Y0: 0, X1: 10, Y1: 2}
	got := RotateRect(r, 90)
	assert.InDelta(t, -2, got.X0, 1e-9)
	assert.InDelta(t, 0, got.X1, 1e-9)
	assert.InDelta(t, 0, got.Y0, 1e-9)
	assert.InDelta(t, 10, got.Y1, 1e-9)

	same := RotateRect(r, 0)
	assert.InDelta(t, r.W(), same.W(), 1e-9)
	assert.InDelta(t, r.H(), same.H(), 1e-9)
}
