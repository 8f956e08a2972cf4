package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/linemap/config"
	"github.com/ByLCY/linemap/layout"
	"github.com/ByLCY/linemap/renderer"
)

// Renderer draws diagrams via github.com/tdewolff/canvas and measures text
// with the same font faces, so layout and output agree.
type Renderer struct {
	baseDir string
	logger  *log.Logger

	// injected resources
	fontBlobs map[string][]byte // by font name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir resolves relative font file paths.
	BaseDir string
	// Fonts maps font names to injected font data; they take precedence over
	// system fonts.
	Fonts map[string]Resource
	// Logger receives font fallback warnings. Nil discards them.
	Logger *log.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font files.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Renderer{
		baseDir:      opts.BaseDir,
		logger:       logger,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 失败时在实际使用处回退到内置字体
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render draws the diagram and encodes it as SVG or PDF. The canvas is
// sized in millimetres; one artboard unit is one CSS pixel.
func (r *Renderer) Render(d *layout.Diagram, opts renderer.Options) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %gx%g", d.Width, d.Height)
	}
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = config.FormatSVG
	}

	wmm, hmm := d.Width*layout.PxToMm, d.Height*layout.PxToMm
	c := canvas.New(wmm, hmm)
	ctx := canvas.NewContext(c)
	ctx.SetView(canvas.Identity.Scale(layout.PxToMm, layout.PxToMm))

	outline := opts.OutlineText && format == config.FormatSVG
	if err := r.drawDiagram(ctx, d, outline); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case config.FormatSVG:
		writer := svg.New(&buf, wmm, hmm, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case config.FormatPDF:
		writer := pdf.New(&buf, wmm, hmm, nil)
		writer.SetInfo(d.LineName, "linear transit diagram", d.LineID, "", "linemap")
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的导出格式 %q", opts.Format)
	}
	return buf.Bytes(), nil
}

// drawDiagram paints back to front: background, track, markers, labels,
// footer, title and subtitle.
func (r *Renderer) drawDiagram(ctx *canvas.Context, d *layout.Diagram, outline bool) error {
	drawBackground(ctx, d.Background)
	if d.TrackOutline != nil {
		drawSegment(ctx, *d.TrackOutline)
	}
	drawSegment(ctx, d.Track)
	for _, st := range d.Stations {
		drawCircle(ctx, st.Marker)
	}
	for i := range d.Stations {
		if err := r.drawTextBox(ctx, &d.Stations[i].Label, outline); err != nil {
			return err
		}
	}
	for _, tb := range []*layout.TextBox{d.Footer, d.Title, d.Subtitle} {
		if tb == nil {
			continue
		}
		if err := r.drawTextBox(ctx, tb, outline); err != nil {
			return err
		}
	}
	return nil
}

// drawTextBox draws each line of the box below the previous one, rotated
// about the box origin. With outline set the glyphs become filled paths.
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb *layout.TextBox, outline bool) error {
	face, err := r.fontFace(tb.Font, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	lineHeight := face.Metrics().LineHeight

	ctx.Push()
	defer ctx.Pop()
	ctx.ComposeView(canvas.Identity.Translate(tb.X, tb.Y).Rotate(tb.Rotation))
	for i, line := range splitLines(tb.Content) {
		y := -float64(i) * lineHeight
		if !outline {
			ctx.DrawText(0, y, canvas.NewTextLine(face, line, canvas.Left))
			continue
		}
		p, _, err := face.ToPath(line)
		if err != nil {
			return fmt.Errorf("文字转曲失败 %q: %w", line, err)
		}
		if p.Empty() {
			continue
		}
		ctx.SetFillColor(colorFromLayout(tb.Color))
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.DrawPath(0, y, p)
	}
	return nil
}

func drawBackground(ctx *canvas.Context, bg layout.Background) {
	ctx.SetFillColor(colorFromLayout(bg.Color))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, canvas.Rectangle(bg.Width, bg.Height))
}

// drawSegment 绘制圆头直线。
func drawSegment(ctx *canvas.Context, ln layout.Segment) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFromLayout(ln.Color))
	ctx.SetStrokeWidth(ln.Width)
	ctx.SetStrokeCapper(canvas.RoundCap)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
	ctx.DrawPath(ln.X1, ln.Y1, p)
}

// drawCircle 绘制圆形，canvas.Circle 以原点为圆心。
func drawCircle(ctx *canvas.Context, c layout.Circle) {
	if c.FillColor != nil {
		ctx.SetFillColor(colorFromLayout(*c.FillColor))
	} else {
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	}
	ctx.SetStrokeColor(colorFromLayout(c.StrokeColor))
	ctx.SetStrokeWidth(c.StrokeWidth)
	ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将画布单位（渲染前按毫米处理）转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
