/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type LayoutConfig struct {
	ReadingDirection string  `yaml:"reading_direction"` // "ltr" | "rtl"
	PaperWidth       float64 `yaml:"paper_width"`
	PaperHeight      float64 `yaml:"paper_height"`
	// BorderMargin widens divider grab zones on each side.
	BorderMargin       float64 `yaml:"border_margin"`
	PaddingHandleWidth float64 `yaml:"padding_handle_width"`
}

type ExportConfig struct {
	// Scale is output pixels per paper unit for raster output.
	Scale       float64 `yaml:"scale"`
	BorderWidth float64 `yaml:"border_width"`
	Background  string  `yaml:"background"`
	BorderColor string  `yaml:"border_color"`
	ShowBubbles bool    `yaml:"show_bubbles"`
}

type HistoryConfig struct {
	MaxUndoBytes int `yaml:"max_undo_bytes"`
	MaxUndoDepth int `yaml:"max_undo_depth"`
	CoalesceMs   int `yaml:"coalesce_ms"`
	// KeepSnapshots bounds the persisted snapshots per book (0 keeps all).
	KeepSnapshots int `yaml:"keep_snapshots"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Layout        LayoutConfig  `yaml:"layout"`
	Export        ExportConfig  `yaml:"export"`
	History       HistoryConfig `yaml:"history"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Layout:        LayoutConfig{ReadingDirection: "ltr", PaperWidth: 840, PaperHeight: 1188, BorderMargin: 6, PaddingHandleWidth: 20},
		Export:        ExportConfig{Scale: 1, BorderWidth: 3, Background: "#ffffff", BorderColor: "#000000", ShowBubbles: true},
		History:       HistoryConfig{MaxUndoBytes: 16 * 1024 * 1024, MaxUndoDepth: 200, CoalesceMs: 250, KeepSnapshots: 50},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvReadingDirection = "GCP_READING_DIRECTION"
	EnvPaperSize        = "GCP_PAPER_SIZE" // WIDTHxHEIGHT
	EnvExportScale      = "GCP_EXPORT_SCALE"
	EnvHistoryKeep      = "GCP_HISTORY_KEEP"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCP_LOG_LEVEL"
	EnvLogFormat = "GCP_LOG_FORMAT"
	EnvLogSource = "GCP_LOG_SOURCE"
	EnvLogFile   = "GCP_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoComicPanels")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoComicPanels")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocomicpanels")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error;
// a malformed one is.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// layout
	if v := strings.ToLower(strings.TrimSpace(src.Layout.ReadingDirection)); v != "" {
		dst.Layout.ReadingDirection = v
	}
	if src.Layout.PaperWidth > 0 && src.Layout.PaperHeight > 0 {
		dst.Layout.PaperWidth = src.Layout.PaperWidth
		dst.Layout.PaperHeight = src.Layout.PaperHeight
	}
	if src.Layout.BorderMargin > 0 {
		dst.Layout.BorderMargin = src.Layout.BorderMargin
	}
	if src.Layout.PaddingHandleWidth > 0 {
		dst.Layout.PaddingHandleWidth = src.Layout.PaddingHandleWidth
	}
	// export
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}
	if src.Export.BorderWidth > 0 {
		dst.Export.BorderWidth = src.Export.BorderWidth
	}
	if v := strings.TrimSpace(src.Export.Background); v != "" {
		dst.Export.Background = v
	}
	if v := strings.TrimSpace(src.Export.BorderColor); v != "" {
		dst.Export.BorderColor = v
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Export.ShowBubbles = src.Export.ShowBubbles
	// history
	if src.History.MaxUndoBytes > 0 {
		dst.History.MaxUndoBytes = src.History.MaxUndoBytes
	}
	if src.History.MaxUndoDepth > 0 {
		dst.History.MaxUndoDepth = src.History.MaxUndoDepth
	}
	if src.History.CoalesceMs > 0 {
		dst.History.CoalesceMs = src.History.CoalesceMs
	}
	if src.History.KeepSnapshots != 0 {
		dst.History.KeepSnapshots = src.History.KeepSnapshots
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvReadingDirection)); v != "" {
		cfg.Layout.ReadingDirection = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPaperSize)); v != "" {
		if w, h, ok := ParsePaperSize(v); ok {
			cfg.Layout.PaperWidth, cfg.Layout.PaperHeight = w, h
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.Scale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.KeepSnapshots = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// ParsePaperSize parses "WIDTHxHEIGHT" with positive dimensions.
func ParsePaperSize(s string) (w, h float64, ok bool) {
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return 0, 0, false
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "layout.reading_direction":
		env = EnvReadingDirection
	case "layout.paper_width", "layout.paper_height":
		env = EnvPaperSize
	case "export.scale":
		env = EnvExportScale
	case "history.keep_snapshots":
		env = EnvHistoryKeep
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
