package main

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ByLCY/linemap/config"
	"github.com/ByLCY/linemap/errors"
	"github.com/ByLCY/linemap/export"
	"github.com/ByLCY/linemap/layout"
	"github.com/ByLCY/linemap/linedata"
	"github.com/ByLCY/linemap/renderer"
	canvasrenderer "github.com/ByLCY/linemap/renderer/canvas"
)

type runOptions struct {
	dataRoot   string
	configPath string
	format     string
	debugDir   string
	dryRun     bool
	verbose    bool
}

// summary 汇总一次批量生成的结果。
type summary struct {
	RunID            string
	ConfigPath       string
	DataRoot         string
	ExportRoot       string
	LocationTemplate string
	Format           string
	DryRun           bool
	Lines            int
	Files            []string
	Warnings         int
	Elapsed          time.Duration
}

// generate 串联配置、数据加载、布局、渲染与导出。
// Configuration and data errors abort before any line is drawn; per-line
// export problems are logged and the batch continues.
func generate(ctx context.Context, opts runOptions, logger *log.Logger) (*summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger = logger.With("run", runID[:8])

	dataRoot, err := filepath.Abs(opts.dataRoot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataDiscovery, err, "resolve data folder").WithSource(opts.dataRoot)
	}
	cfgPath, err := resolveConfigPath(opts.configPath, dataRoot)
	if err != nil {
		return nil, err
	}
	cfg, unknown, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		logger.Warn("unknown configuration keys", "keys", strings.Join(unknown, ", "), "file", cfgPath)
	}
	if opts.format != "" {
		cfg.ExportFormat = strings.ToLower(strings.TrimSpace(opts.format))
		if cfg.ExportFormat != config.FormatSVG && cfg.ExportFormat != config.FormatPDF {
			return nil, errors.New(errors.ErrCodeConfig, "unsupported export format %q (svg or pdf)", opts.format)
		}
	}
	logger.Debug("configuration loaded", "file", cfgPath, "format", cfg.ExportFormat)
	if unknown := export.UnknownLocationTokens(cfg.ExportLocationTemplate); len(unknown) > 0 {
		logger.Warn("export location template has unknown tokens, they are kept verbatim", "tokens", strings.Join(unknown, ", "))
	}

	lines, err := linedata.LoadAll(dataRoot)
	if err != nil {
		return nil, err
	}
	logger.Info("lines discovered", "count", len(lines), "data", dataRoot)

	s := &summary{
		RunID:            runID,
		ConfigPath:       cfgPath,
		DataRoot:         dataRoot,
		LocationTemplate: cfg.ExportLocationTemplate,
		Format:           cfg.ExportFormat,
		Lines:            len(lines),
	}
	writing := cfg.ExportSVG && !opts.dryRun
	s.DryRun = !writing
	if !cfg.ExportSVG {
		logger.Info("EXPORT_SVG is off, diagrams are laid out but not written")
	}
	if writing {
		s.ExportRoot, err = export.ResolveExportRoot(dataRoot, cfg.ExportDestinationFolder)
		if err != nil {
			return nil, err
		}
	} else {
		s.ExportRoot = export.RootPath(dataRoot, cfg.ExportDestinationFolder)
	}
	if opts.debugDir != "" {
		if err := os.MkdirAll(opts.debugDir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeExportLocation, err, "create debug folder").WithSource(opts.debugDir)
		}
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: dataRoot, Logger: logger})
	engine, err := layout.New(cfg, layout.BuildOptions{Measurer: r, Logger: logger})
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		path, warned := generateLine(l, cfg, engine, r, s.ExportRoot, opts.debugDir, writing, logger)
		if warned {
			s.Warnings++
		}
		if path != "" {
			s.Files = append(s.Files, path)
		}
	}
	s.Elapsed = time.Since(start)
	return s, nil
}

// generateLine lays out, renders and writes one line. It returns the written
// path (empty when nothing was written) and whether a warning was logged.
func generateLine(l *linedata.Line, cfg *config.Config, engine *layout.Engine, r renderer.Renderer, exportRoot, debugDir string, writing bool, logger *log.Logger) (string, bool) {
	lineLog := logger.With("line", l.Label())

	d, err := engine.Build(l)
	if err != nil {
		lineLog.Warn("layout failed", "err", err)
		return "", true
	}
	lineLog.Debug("laid out", "height", d.Height, "padLeft", d.PadLeft, "padRight", d.PadRight, "fallbacks", d.MeasurementFallbacks)

	name := export.ResolveFileName(cfg.ExportFilenameTemplate, l)
	if debugDir != "" {
		if err := layout.WriteDebugJSON(d, filepath.Join(debugDir, name+".json")); err != nil {
			lineLog.Warn("debug JSON not written", "err", err)
		}
	}
	if !writing {
		return "", false
	}

	data, err := r.Render(d, renderer.Options{Format: cfg.ExportFormat, OutlineText: cfg.OutlineTextForSVG})
	if err != nil {
		lineLog.Warn("export failed", "err", errors.Wrap(errors.ErrCodeExport, err, "render diagram").WithSource(l.Source))
		return "", true
	}

	warned := false
	folder, err := export.ResolveLineFolder(exportRoot, cfg.ExportLocationTemplate, l)
	if err != nil {
		lineLog.Warn("export location failed, using export root", "err", err, "root", exportRoot)
		folder, warned = exportRoot, true
	}
	path, err := export.Write(folder, name, cfg.ExportFormat, data)
	if err != nil {
		lineLog.Warn("export failed", "err", err)
		return "", true
	}
	lineLog.Info("exported", "file", path)
	return path, warned
}

// resolveConfigPath 依次查找：命令行指定、可执行文件旁、工作目录、数据目录。
func resolveConfigPath(flagPath, dataRoot string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", errors.Wrap(errors.ErrCodeConfig, err, "configuration file not found").WithSource(flagPath)
		}
		return flagPath, nil
	}
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), linedata.ConfigFileName))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, linedata.ConfigFileName))
	}
	candidates = append(candidates, filepath.Join(dataRoot, linedata.ConfigFileName))
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	return "", errors.New(errors.ErrCodeConfig,
		"no %s found next to the executable, in the working directory or in %s", linedata.ConfigFileName, dataRoot)
}

// logFailure reports a fatal run error by code.
func logFailure(logger *log.Logger, err error) {
	if stderrors.Is(err, context.Canceled) {
		logger.Warn("interrupted")
		return
	}
	logger.Error("generation failed", "code", errors.GetCode(err), "err", errors.UserMessage(err))
}
