// Package config persists cleanup settings: zones, detector selection, and
// protection options. The on-disk format is YAML, edited by hand or saved
// from a front end; this package converts it to and from the typed forms
// the pipeline consumes.
package config

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/zone"
)

// ZoneConfig is the YAML shape of one cleanup zone.
type ZoneConfig struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name,omitempty"`
	Mode      string  `yaml:"mode"`
	Anchor    string  `yaml:"anchor,omitempty"`
	X         float64 `yaml:"x,omitempty"`
	Y         float64 `yaml:"y,omitempty"`
	Width     float64 `yaml:"width,omitempty"`
	Height    float64 `yaml:"height,omitempty"`
	XPx       int     `yaml:"x_px,omitempty"`
	YPx       int     `yaml:"y_px,omitempty"`
	WidthPx   int     `yaml:"width_px,omitempty"`
	HeightPx  int     `yaml:"height_px,omitempty"`
	Threshold int     `yaml:"threshold"`
	Scope     string  `yaml:"scope,omitempty"`
	File      string  `yaml:"file,omitempty"`
	Page      int     `yaml:"page,omitempty"`
	Enabled   *bool   `yaml:"enabled,omitempty"`
}

// DetectorConfig selects the layout detection backend.
type DetectorConfig struct {
	Backend        string `yaml:"backend"`
	RemoteURL      string `yaml:"remote_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// ProtectionConfig controls content protection.
type ProtectionConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Confidence float64  `yaml:"confidence"`
	Labels     []string `yaml:"labels,omitempty"`
	Margin     int      `yaml:"margin"`
}

// Config is the full settings document.
type Config struct {
	Zones      []ZoneConfig     `yaml:"zones"`
	Detector   DetectorConfig   `yaml:"detector"`
	Protection ProtectionConfig `yaml:"protection"`

	// FillColor optionally overrides the sampled page background, as a
	// hex string like "#f4f0e8". Empty means sample per page.
	FillColor string `yaml:"fill_color,omitempty"`
}

// Default returns the built-in configuration: preset zones, the contrast
// backend, and protection on with the default label set.
func Default() *Config {
	cfg := &Config{
		Detector: DetectorConfig{Backend: detect.BackendContrast},
		Protection: ProtectionConfig{
			Enabled:    true,
			Confidence: 0.5,
			Margin:     5,
		},
	}
	for _, z := range zone.Presets() {
		cfg.Zones = append(cfg.Zones, fromZone(z))
	}
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.AllZones(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if _, _, err := cfg.Fill(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AllZones converts every configured zone, validating as it goes.
func (c *Config) AllZones() ([]zone.Zone, error) {
	zones := make([]zone.Zone, 0, len(c.Zones))
	for i, zc := range c.Zones {
		z, err := toZone(zc)
		if err != nil {
			return nil, fmt.Errorf("zone %d (%s): %w", i, zc.ID, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// ZonesForPage resolves zone scoping for one page of one file: global
// zones always apply, file zones when the filename matches, page zones
// when both filename and 1-based page number match. Input order is
// preserved, which fixes the compositing order downstream.
func (c *Config) ZonesForPage(file string, page int) ([]zone.Zone, error) {
	all, err := c.AllZones()
	if err != nil {
		return nil, err
	}
	var out []zone.Zone
	for _, z := range all {
		switch z.Scope {
		case zone.Global:
			out = append(out, z)
		case zone.PerFile:
			if z.File == file {
				out = append(out, z)
			}
		case zone.PerPage:
			if z.File == file && z.Page == page {
				out = append(out, z)
			}
		}
	}
	return out, nil
}

// DetectorSettings converts the detector section for the detect package.
func (c *Config) DetectorSettings() detect.Config {
	dc := detect.Config{
		Backend:   c.Detector.Backend,
		RemoteURL: c.Detector.RemoteURL,
	}
	if c.Detector.TimeoutSeconds > 0 {
		dc.Timeout = time.Duration(c.Detector.TimeoutSeconds) * time.Second
	}
	for _, l := range c.Protection.Labels {
		dc.ProtectedLabels = append(dc.ProtectedLabels, detect.Label(l))
	}
	return dc
}

// Fill parses the optional background override. The second return value is
// false when no override is configured.
func (c *Config) Fill() (color.NRGBA, bool, error) {
	if c.FillColor == "" {
		return color.NRGBA{}, false, nil
	}
	cf, err := colorful.Hex(c.FillColor)
	if err != nil {
		return color.NRGBA{}, false, fmt.Errorf("fill_color: %w", err)
	}
	r, g, b := cf.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, true, nil
}

func toZone(zc ZoneConfig) (zone.Zone, error) {
	mode, err := zone.ParseSizingMode(zc.Mode)
	if err != nil {
		return zone.Zone{}, err
	}
	anchor, err := zone.ParseAnchor(zc.Anchor)
	if err != nil {
		return zone.Zone{}, err
	}
	scope, err := zone.ParseScope(zc.Scope)
	if err != nil {
		return zone.Zone{}, err
	}
	enabled := true
	if zc.Enabled != nil {
		enabled = *zc.Enabled
	}
	z := zone.Zone{
		ID:         zc.ID,
		Name:       zc.Name,
		Mode:       mode,
		Anchor:     anchor,
		XFrac:      zc.X,
		YFrac:      zc.Y,
		WidthFrac:  zc.Width,
		HeightFrac: zc.Height,
		XPx:        zc.XPx,
		YPx:        zc.YPx,
		WidthPx:    zc.WidthPx,
		HeightPx:   zc.HeightPx,
		Threshold:  zc.Threshold,
		Scope:      scope,
		File:       zc.File,
		Page:       zc.Page,
		Enabled:    enabled,
	}
	if err := z.Validate(); err != nil {
		return zone.Zone{}, err
	}
	return z, nil
}

func fromZone(z zone.Zone) ZoneConfig {
	enabled := z.Enabled
	return ZoneConfig{
		ID:        z.ID,
		Name:      z.Name,
		Mode:      z.Mode.String(),
		Anchor:    z.Anchor.String(),
		X:         z.XFrac,
		Y:         z.YFrac,
		Width:     z.WidthFrac,
		Height:    z.HeightFrac,
		XPx:       z.XPx,
		YPx:       z.YPx,
		WidthPx:   z.WidthPx,
		HeightPx:  z.HeightPx,
		Threshold: z.Threshold,
		Scope:     z.Scope.String(),
		File:      z.File,
		Page:      z.Page,
		Enabled:   &enabled,
	}
}
