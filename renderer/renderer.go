package renderer

import "github.com/ByLCY/linemap/layout"

// Options selects the output of one Render call.
type Options struct {
	// Format is "svg" or "pdf".
	Format string
	// OutlineText converts text to filled glyph paths in SVG output.
	OutlineText bool
}

// Renderer 将布局结果输出为最终文件，例如 SVG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(d *layout.Diagram, opts Options) ([]byte, error)
}
