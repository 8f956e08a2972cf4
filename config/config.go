// Package config resolves the run configuration: built-in defaults merged with
// a user override document, validated and decoded into a typed Config.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/linemap/errors"
)

// FallbackFont is used for any font name left empty after merging.
const FallbackFont = "ArialMT"

// Export formats understood by the renderer.
const (
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// Label modes. Any value other than LabelVertical tilts labels by LABEL_TILT.
const (
	LabelVertical = "vertical"
	LabelAngled   = "angled"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Config is the typed, immutable view of the merged option mapping.
// Field tags carry the option keys used in configuration documents.
type Config struct {
	ArtboardWidth  float64 `json:"ARTBOARD_WIDTH"`
	ArtboardHeight float64 `json:"ARTBOARD_HEIGHT"`
	BaselineY      float64 `json:"BASELINE_Y"`
	HPadding       float64 `json:"H_PADDING"`

	AutoPadTerminals bool    `json:"AUTO_PAD_TERMINALS"`
	PadRightMargin   float64 `json:"PAD_RIGHT_MARGIN"`
	PadLeftMargin    float64 `json:"PAD_LEFT_MARGIN"`
	PadMaxExtra      float64 `json:"PAD_MAX_EXTRA"`
	PadCheckLeft     bool    `json:"PAD_CHECK_LEFT"`

	LineStroke float64 `json:"LINE_STROKE"`

	LineOutlineEnabled bool    `json:"LINE_OUTLINE_ENABLED"`
	LineOutlineWidth   float64 `json:"LINE_OUTLINE_WIDTH"`
	LineOutlineColor   Color   `json:"LINE_OUTLINE_COLOR"`

	StationRadius float64 `json:"STATION_RADIUS"`
	// nil = auto from LINE_STROKE
	StationStrokeWidth *float64 `json:"STATION_STROKE_WIDTH"`

	LabelMode      string  `json:"LABEL_MODE"`
	LabelTilt      float64 `json:"LABEL_TILT"`
	LabelClearance float64 `json:"LABEL_CLEARANCE"`
	LabelXNudge    float64 `json:"LABEL_X_NUDGE"`

	FontLabelName    string `json:"FONT_LABEL_NAME"`
	FontTitleName    string `json:"FONT_TITLE_NAME"`
	FontSubtitleName string `json:"FONT_SUBTITLE_NAME"`
	FontFooterName   string `json:"FONT_FOOTER_NAME"`

	FontSize float64 `json:"FONT_SIZE"`

	StationOutline Color `json:"STATION_OUTLINE"`

	FooterText         string  `json:"FOOTER_TEXT"`
	FooterFontSize     float64 `json:"FOOTER_FONT_SIZE"`
	FooterColor        Color   `json:"FOOTER_COLOR"`
	FooterBottomMargin float64 `json:"FOOTER_BOTTOM_MARGIN"`

	DrawTitle       bool    `json:"DRAW_TITLE"`
	TitleTemplate   string  `json:"TITLE_TEMPLATE"`
	TitleFontSize   float64 `json:"TITLE_FONT_SIZE"`
	TitleColor      Color   `json:"TITLE_COLOR"`
	TitleLeft       float64 `json:"TITLE_LEFT"`
	TitleTopFromTop float64 `json:"TITLE_TOP_FROM_TOP"`

	DrawSubtitle       bool    `json:"DRAW_SUBTITLE"`
	SubtitleTemplate   string  `json:"SUBTITLE_TEMPLATE"`
	SubtitleFontSize   float64 `json:"SUBTITLE_FONT_SIZE"`
	SubtitleColor      Color   `json:"SUBTITLE_COLOR"`
	SubtitleLeft       float64 `json:"SUBTITLE_LEFT"` // used only when no title exists
	SubtitleTopFromTop float64 `json:"SUBTITLE_TOP_FROM_TOP"`

	AutoHeight bool    `json:"AUTO_HEIGHT"`
	MinHeight  float64 `json:"MIN_HEIGHT"`

	ReserveTitleBand bool    `json:"RESERVE_TITLE_BAND"`
	TitleBandPadding float64 `json:"TITLE_BAND_PADDING"`
	TitleBandLineGap float64 `json:"TITLE_BAND_LINE_GAP"`

	ExportSVG bool `json:"EXPORT_SVG"`
	// Empty exports next to the input documents; relative paths resolve
	// against the data root.
	ExportDestinationFolder string `json:"EXPORT_DESTINATION_FOLDER"`
	// Tokens: {base} {region} {system} {id}
	ExportLocationTemplate string `json:"EXPORT_LOCATION_TEMPLATE"`
	// Without extension. Tokens: {system} {id} {name} {years} {years_paren}
	ExportFilenameTemplate string `json:"EXPORT_FILENAME_TEMPLATE"`
	ExportFormat           string `json:"EXPORT_FORMAT"`

	OutlineTextForSVG bool `json:"OUTLINE_TEXT_FOR_SVG"`
	CloseAfterExport  bool `json:"CLOSE_AFTER_EXPORT"`

	// Raw is the merged option mapping, unknown keys included.
	Raw Values `json:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ArtboardWidth:  1500,
		ArtboardHeight: 300,
		BaselineY:      48,
		HPadding:       90,

		AutoPadTerminals: true,
		PadRightMargin:   8,
		PadLeftMargin:    8,
		PadMaxExtra:      260,
		PadCheckLeft:     false,

		LineStroke: 16,

		LineOutlineEnabled: false,
		LineOutlineWidth:   3,
		LineOutlineColor:   Color{0, 0, 0},

		StationRadius: 10,

		LabelMode:      LabelAngled,
		LabelTilt:      -20,
		LabelClearance: 10,
		LabelXNudge:    -6,

		FontLabelName:    FallbackFont,
		FontTitleName:    FallbackFont,
		FontSubtitleName: FallbackFont,
		FontFooterName:   FallbackFont,

		FontSize: 18,

		StationOutline: Color{0, 0, 0},

		FooterText:         "Rail Fans Canada — 2026",
		FooterFontSize:     11,
		FooterColor:        Color{155, 155, 155},
		FooterBottomMargin: 15,

		DrawTitle:       true,
		TitleTemplate:   "{name}{years_paren}",
		TitleFontSize:   44,
		TitleColor:      Color{0, 0, 0},
		TitleLeft:       14,
		TitleTopFromTop: 18,

		DrawSubtitle:       false,
		SubtitleTemplate:   "{system}",
		SubtitleFontSize:   18,
		SubtitleColor:      Color{90, 90, 90},
		SubtitleLeft:       14,
		SubtitleTopFromTop: 70,

		AutoHeight: true,
		MinHeight:  220,

		ReserveTitleBand: true,
		TitleBandPadding: 10,
		TitleBandLineGap: 10,

		ExportSVG:               true,
		ExportDestinationFolder: "",
		ExportLocationTemplate:  "{base}/{region}/{system}",
		ExportFilenameTemplate:  "{name}",
		ExportFormat:            FormatSVG,

		OutlineTextForSVG: true,
		CloseAfterExport:  false,
	}
}

// DefaultValues returns the defaults as an option mapping, one entry per
// recognized key. Colors become nested {r,g,b} mappings.
func DefaultValues() Values {
	data, err := json.Marshal(Defaults())
	if err != nil {
		panic(fmt.Sprintf("config: marshal defaults: %v", err))
	}
	var v Values
	if err := json.Unmarshal(data, &v); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return v
}

// StationStroke returns the station marker stroke width, derived from the
// track stroke when not configured.
func (c *Config) StationStroke() float64 {
	if c.StationStrokeWidth != nil {
		return *c.StationStrokeWidth
	}
	return math.Max(2, math.Round(c.LineStroke*0.35))
}

// Decode converts a merged option mapping into a Config. Keys missing from v
// keep their defaults; a null value keeps the default as well, except for
// options where null means "auto".
func Decode(v Values) (*Config, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "encode merged configuration")
	}
	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "invalid configuration value")
	}
	cfg.Raw = v
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ArtboardWidth <= 0 {
		return errors.New(errors.ErrCodeConfig, "ARTBOARD_WIDTH must be positive, got %g", c.ArtboardWidth)
	}
	if c.FontSize <= 0 {
		return errors.New(errors.ErrCodeConfig, "FONT_SIZE must be positive, got %g", c.FontSize)
	}
	c.ExportFormat = strings.ToLower(strings.TrimSpace(c.ExportFormat))
	if c.ExportFormat == "" {
		c.ExportFormat = FormatSVG
	}
	switch c.ExportFormat {
	case FormatSVG, FormatPDF:
	default:
		return errors.New(errors.ErrCodeConfig, "EXPORT_FORMAT must be %q or %q, got %q", FormatSVG, FormatPDF, c.ExportFormat)
	}
	return nil
}
