package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tdewolff/osmrender/config"
	"github.com/tdewolff/osmrender/export"
	"github.com/tdewolff/osmrender/geo"
	"github.com/tdewolff/osmrender/osm"
	"github.com/tdewolff/osmrender/render"
	"github.com/tdewolff/osmrender/style"
)

var (
	input      string
	gpxFiles   string
	output     string
	configFile string
	styleName  string
	styleDir   string
	bbox       string
	shapefile  string
	projection string
	width      float64
	height     float64
	dpi        float64
	simplify   float64
	workers    int
	quality    int
	cull       bool
	showStats  bool
	debug      bool
)

func init() {
	flag.StringVar(&input, "in", "", "OSM XML (.osm) or PBF (.osm.pbf) input file")
	flag.StringVar(&gpxFiles, "gpx", "", "Comma separated GPX files with tracks to add")
	flag.StringVar(&output, "out", "", "Output image, format by extension: svg, png, jpg, or pdf")
	flag.StringVar(&configFile, "config", "", "YAML configuration file (default: user configuration directory)")
	flag.StringVar(&styleName, "style", "", "Stylesheet name or YAML stylesheet file")
	flag.StringVar(&styleDir, "styles", "", "Directory of YAML stylesheets")
	flag.StringVar(&bbox, "bbox", "", "Extract and render only minlon,minlat,maxlon,maxlat")
	flag.StringVar(&shapefile, "shp", "", "Base filename for ESRI shapefile export of the styled features")
	flag.StringVar(&projection, "projection", "", "Projection: latlon, webmercator, or utm")
	flag.Float64Var(&width, "width", 0.0, "Output width in pixels")
	flag.Float64Var(&height, "height", 0.0, "Output height in pixels")
	flag.Float64Var(&dpi, "dpi", 0.0, "Output resolution in dots per inch")
	flag.Float64Var(&simplify, "simplify", 0.0, "Simplification tolerance in pixels")
	flag.IntVar(&quality, "quality", 0, "JPEG quality from 1 to 100")
	flag.IntVar(&workers, "workers", 0, "Number of workers for PBF decoding and styling")
	flag.BoolVar(&cull, "cull", false, "Drop features outside the output area")
	flag.BoolVar(&showStats, "stats", false, "Print statistics of the map data")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("failed", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return cfg, err
	}

	// explicitly set flags override the configuration
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "style":
			cfg.Map.Style = styleName
		case "styles":
			cfg.Map.StyleDir = styleDir
		case "projection":
			cfg.Map.Projection = projection
		case "simplify":
			cfg.Map.Simplify = simplify
		case "cull":
			cfg.Map.Cull = cull
		case "workers":
			cfg.Map.Workers = workers
		case "width":
			cfg.Export.Width = width
		case "height":
			cfg.Export.Height = height
		case "dpi":
			cfg.Export.DPI = dpi
		case "quality":
			cfg.Export.Quality = quality
		}
	})
	if output != "" {
		cfg.Export.Format = export.FormatFromFilename(output)
	}
	return cfg, nil
}

func parseBBox(s string) (osm.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return osm.Bounds{}, fmt.Errorf("bbox %q: expected minlon,minlat,maxlon,maxlat", s)
	}
	var v [4]float64
	for i, part := range parts {
		var err error
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
			return osm.Bounds{}, fmt.Errorf("bbox %q: %w", s, err)
		}
	}
	if v[2] < v[0] || v[3] < v[1] {
		return osm.Bounds{}, fmt.Errorf("bbox %q: minimum exceeds maximum", s)
	}
	return osm.Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}

func progress(ctx context.Context, logger *zap.Logger, z *osm.PBFParser, total int64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := z.Pos()
			logger.Debug("loading", zap.Int64("pos", pos), zap.Int64("size", total),
				zap.String("progress", fmt.Sprintf("%.1f%%", 100.0*float64(pos)/float64(total))))
		}
	}
}

func load(ctx context.Context, logger *zap.Logger, filename string, numWorkers int) (*osm.MapData, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pbf") {
		return osm.XMLParser{Logger: logger}.ParseFile(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	z := osm.NewPBFParser(f)
	z.Logger = logger
	if 0 < numWorkers {
		z.Workers = numWorkers
	}

	progressCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go progress(progressCtx, logger, z, info.Size())
	return z.Load(ctx)
}

func run(ctx context.Context, logger *zap.Logger) error {
	if input == "" {
		flag.Usage()
		return fmt.Errorf("missing input file")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t := time.Now()
	data, err := load(ctx, logger, input, cfg.Map.Workers)
	if err != nil {
		return err
	}
	for _, filename := range strings.Split(gpxFiles, ",") {
		if filename = strings.TrimSpace(filename); filename == "" {
			continue
		}
		tracks, err := osm.ParseGPXFile(filename)
		if err != nil {
			return err
		}
		for _, track := range tracks {
			data.AddTrack(track)
		}
	}
	logger.Info("loaded map data",
		zap.String("filename", input),
		zap.Int("nodes", len(data.Nodes)),
		zap.Int("ways", len(data.Ways)),
		zap.Int("relations", len(data.Relations)),
		zap.Int("tracks", len(data.Tracks)),
		zap.Duration("time", time.Since(t)))

	bounds := data.Bounds
	if bbox != "" {
		if bounds, err = parseBBox(bbox); err != nil {
			return err
		}
		data = data.Extract(bounds, nil)
		logger.Info("extracted bounding box",
			zap.Int("nodes", len(data.Nodes)),
			zap.Int("ways", len(data.Ways)),
			zap.Int("relations", len(data.Relations)))
	}
	if showStats {
		fmt.Println(osm.ComputeStats(data))
	}
	if output == "" && shapefile == "" {
		return nil
	}

	registry := style.NewRegistry()
	if cfg.Map.StyleDir != "" {
		if _, err := registry.LoadDir(cfg.Map.StyleDir); err != nil {
			return err
		}
	}
	sheet, err := registry.Resolve(cfg.Map.Style)
	if err != nil {
		return err
	}

	t = time.Now()
	features := sheet.Apply(data, style.WithWorkers(cfg.Map.Workers), style.WithLogger(logger))
	logger.Info("styled map data",
		zap.String("stylesheet", sheet.Name),
		zap.Int("features", len(features)),
		zap.Duration("time", time.Since(t)))

	if shapefile != "" {
		filenames, err := export.WriteShapefile(shapefile, features)
		if err != nil {
			return err
		}
		logger.Info("wrote shapefiles", zap.Strings("filenames", filenames))
	}
	if output == "" {
		return nil
	}

	lat, lon := 0.0, 0.0
	if !bounds.IsEmpty() {
		lat, lon = bounds.Center()
	}
	proj, err := geo.ParseProjection(cfg.Map.Projection, lat, lon)
	if err != nil {
		return err
	}
	opts := []render.Option{render.WithProjection(proj)}
	if 0.0 < cfg.Map.Simplify {
		opts = append(opts, render.WithSimplify(cfg.Map.Simplify))
	}
	if cfg.Map.Cull {
		opts = append(opts, render.WithCulling())
	}
	vp := render.FitBounds(cfg.Export.Width, cfg.Export.Height, bounds)
	elements := render.Render(features, vp, opts...)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	return export.NewExporter(logger).Write(output, elements, cfg.Export.Options())
}
