// Command unstaple removes staple marks and binding artifacts from scanned
// documents. It renders each page of the input, detects content to
// protect, and cleans the configured zones, writing one PNG per page.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/scanworks/unstaple/internal/config"
	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/engine"
	"github.com/scanworks/unstaple/internal/optimizer"
	"github.com/scanworks/unstaple/internal/overlay"
	"github.com/scanworks/unstaple/internal/source"
	"github.com/scanworks/unstaple/internal/system"
	"github.com/scanworks/unstaple/internal/zone"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	input := flag.String("input", "", "input PDF, image file, or directory of scans")
	output := flag.String("output", "cleaned", "output directory")
	configPath := flag.String("config", "", "settings file (YAML); built-in presets when empty")
	dpi := flag.Int("dpi", 300, "render resolution for PDF input")
	backend := flag.String("backend", "", "override the configured detection backend")
	noProtect := flag.Bool("no-protect", false, "skip layout detection and clean without protection")
	drawOverlay := flag.Bool("overlay", false, "also write *-overlay.png previews of regions and safe zones")
	workers := flag.Int("workers", 0, "parallel page workers (0 = size from machine resources)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("unstaple %s (built %s)\n", Version, BuildTime)
		return
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*input, *output, *configPath, *backend, *dpi, *workers, *noProtect, *drawOverlay); err != nil {
		log.Fatal(err)
	}
}

func run(input, output, configPath, backendOverride string, dpi, workerCount int, noProtect, drawOverlay bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	opts := engine.DefaultOptions()
	opts.Optimizer.Margin = cfg.Protection.Margin
	if fill, ok, err := cfg.Fill(); err != nil {
		return err
	} else if ok {
		opts.FillColor = &fill
	}
	remover := engine.New(opts)

	var detector detect.Detector
	if !noProtect && cfg.Protection.Enabled {
		settings := cfg.DetectorSettings()
		if backendOverride != "" {
			settings.Backend = backendOverride
		}
		var err error
		if detector, err = detect.New(settings); err != nil {
			// Misconfiguration fails fast; silently cleaning without
			// protection is worse than not starting.
			return err
		}
	}

	src, err := source.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}

	pageCount := src.PageCount()
	if workerCount <= 0 {
		workerCount = system.Workers(pageCount)
	}
	log.Printf("processing %s: %d pages, %d workers", input, pageCount, workerCount)

	fileName := filepath.Base(input)
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	var warnOnce sync.Once
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workerCount)

	for page := 0; page < pageCount; page++ {
		g.Go(func() error {
			img, err := src.RenderPage(page, dpi)
			if err != nil {
				return err
			}

			zones, err := cfg.ZonesForPage(fileName, page+1)
			if err != nil {
				return err
			}

			var regions []detect.Region
			if detector != nil {
				regions, err = detector.Detect(ctx, img, cfg.Protection.Confidence)
				if detect.IsUnavailable(err) {
					// Fail open: clean without protection, but say so.
					warnOnce.Do(func() {
						log.Printf("warning: %v; continuing without content protection", err)
					})
					regions = nil
				} else if err != nil {
					return err
				}
			}

			cleaned, report, err := remover.ProcessPage(img, zones, regions, dpi)
			if err != nil {
				return fmt.Errorf("page %d: %w", page+1, err)
			}
			for _, zr := range report.Zones {
				if zr.Err != nil {
					log.Printf("page %d zone %s skipped: %v", page+1, zr.ZoneID, zr.Err)
				}
			}
			log.Printf("page %d: %d pixels removed in %d zones", page+1, report.Removed(), len(report.Zones))

			outPath := filepath.Join(output, fmt.Sprintf("%s-page-%03d.png", stem, page+1))
			if err := imaging.Save(cleaned, outPath); err != nil {
				return fmt.Errorf("save %s: %w", outPath, err)
			}

			if drawOverlay {
				safe := collectSafeZones(zones, regions, img, dpi, opts)
				preview := overlay.Render(img, regions, safe)
				previewPath := filepath.Join(output, fmt.Sprintf("%s-page-%03d-overlay.png", stem, page+1))
				if err := imaging.Save(preview, previewPath); err != nil {
					return fmt.Errorf("save %s: %w", previewPath, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// collectSafeZones recomputes the safe areas for the overlay preview.
func collectSafeZones(zones []zone.Zone, regions []detect.Region, img image.Image, dpi int, opts engine.Options) []optimizer.SafeZone {
	bounds := img.Bounds()
	pageW, pageH := bounds.Dx(), bounds.Dy()
	dpiScale := float64(dpi) / float64(zone.BaseDPI)

	var out []optimizer.SafeZone
	for _, z := range zones {
		if !z.Enabled || z.Validate() != nil {
			continue
		}
		rect := z.ResolvePadded(pageW, pageH, dpiScale, opts.EdgePadding)
		safe, err := optimizer.Optimize(rect, regions, opts.Optimizer)
		if err != nil {
			continue
		}
		out = append(out, safe...)
	}
	return out
}
