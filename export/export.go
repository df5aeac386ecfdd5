package export

import (
	"errors"
	"fmt"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"go.uber.org/zap"

	"github.com/tdewolff/osmrender/render"
	"github.com/tdewolff/osmrender/style"
)

var (
	ErrInvalidSize    = errors.New("invalid output size")
	ErrInvalidDPI     = errors.New("invalid resolution")
	ErrUnknownFormat  = errors.New("unknown output format")
	ErrInvalidQuality = errors.New("invalid JPEG quality")
)

// Formats are the supported output formats.
var Formats = []string{"svg", "png", "jpg", "pdf"}

// Options are the output options. Width and Height are in pixels, which for vector formats are converted to a physical size by DPI.
type Options struct {
	Format     string
	Width      float64
	Height     float64
	DPI        float64
	Quality    int // JPEG quality from 1 to 100
	Background *style.Color
}

// DefaultOptions returns a 1920x1080 SVG at 300 DPI on a light blue background, with a JPEG quality of 90.
func DefaultOptions() Options {
	background := style.RGB(0xF0, 0xF8, 0xFF)
	return Options{
		Format:     "svg",
		Width:      1920.0,
		Height:     1080.0,
		DPI:        300.0,
		Quality:    90,
		Background: &background,
	}
}

// FormatFromFilename returns the format by file extension.
func FormatFromFilename(filename string) string {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if format == "jpeg" {
		format = "jpg"
	}
	return format
}

// Validate returns an error when the size or resolution is not positive, the format is unknown, or the JPEG quality is out of range.
func (o Options) Validate() error {
	if !(0.0 < o.Width) || !(0.0 < o.Height) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidSize, o.Width, o.Height)
	} else if !(0.0 < o.DPI) {
		return fmt.Errorf("%w: %g DPI", ErrInvalidDPI, o.DPI)
	} else if (o.Format == "jpg" || o.Format == "jpeg") && (o.Quality < 1 || 100 < o.Quality) {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, o.Quality)
	} else if _, err := o.writer(); err != nil {
		return err
	}
	return nil
}

func (o Options) writer() (canvas.Writer, error) {
	switch o.Format {
	case "svg":
		return renderers.SVG(), nil
	case "png":
		return renderers.PNG(canvas.DPI(o.DPI)), nil
	case "jpg", "jpeg":
		return renderers.JPEG(canvas.DPI(o.DPI), &jpeg.Options{Quality: o.Quality}), nil
	case "pdf":
		return renderers.PDF(), nil
	}
	return nil, fmt.Errorf("%w %q, expected one of %s", ErrUnknownFormat, o.Format, strings.Join(Formats, ", "))
}

// mmPerPx is the physical size of a pixel in millimeters.
func (o Options) mmPerPx() float64 {
	return 25.4 / o.DPI
}

// FontLoader loads a font family by name.
type FontLoader func(name string) (*canvas.FontFamily, error)

// LoadSystemFont loads the regular style of an installed font.
func LoadSystemFont(name string) (*canvas.FontFamily, error) {
	family := canvas.NewFontFamily(name)
	if err := family.LoadSystemFont(name, canvas.FontRegular); err != nil {
		return nil, err
	}
	return family, nil
}

// Exporter draws render elements using tdewolff/canvas. Loaded fonts are cached, and labels are skipped when their font cannot be loaded.
type Exporter struct {
	Logger     *zap.Logger
	LoadFont   FontLoader
	fonts      *lru.Cache[string, *canvas.FontFamily]
	fontErrors *lru.Cache[string, error]
}

// NewExporter returns an exporter that caches up to 16 font families.
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	fonts, _ := lru.New[string, *canvas.FontFamily](16)
	fontErrors, _ := lru.New[string, error](16)
	return &Exporter{
		Logger:     logger,
		LoadFont:   LoadSystemFont,
		fonts:      fonts,
		fontErrors: fontErrors,
	}
}

func (e *Exporter) font(name string) (*canvas.FontFamily, bool) {
	if family, ok := e.fonts.Get(name); ok {
		return family, true
	} else if _, ok := e.fontErrors.Get(name); ok {
		return nil, false
	}

	family, err := e.LoadFont(name)
	if err != nil {
		e.Logger.Warn("font not available, skipping labels", zap.String("font", name), zap.Error(err))
		e.fontErrors.Add(name, err)
		return nil, false
	}
	e.fonts.Add(name, family)
	return family, true
}

// Canvas returns a new canvas with the elements drawn on it.
func (e *Exporter) Canvas(elements []render.Element, opts Options) (*canvas.Canvas, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	k := opts.mmPerPx()
	c := canvas.New(opts.Width*k, opts.Height*k)
	e.Draw(canvas.NewContext(c), elements, opts)
	return c, nil
}

// Draw draws the background and elements in order. Element coordinates are in pixels with the origin at the top left, and are converted to millimeters with the origin at the bottom left.
func (e *Exporter) Draw(ctx *canvas.Context, elements []render.Element, opts Options) {
	k := opts.mmPerPx()
	if opts.Background != nil {
		ctx.SetFillColor(opts.Background.NRGBA())
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0.0, 0.0, canvas.Rectangle(opts.Width*k, opts.Height*k))
	}

	ctx.SetStrokeCapper(canvas.RoundCap)
	ctx.SetStrokeJoiner(canvas.RoundJoin)
	flip := func(x, y float64) (float64, float64) {
		return x * k, (opts.Height - y) * k
	}

	skipped := 0
	for _, elem := range elements {
		switch elem := elem.(type) {
		case render.Line:
			stroke := strokeColor(elem.Style)
			if stroke == nil || elem.Style.Mode == style.TextMode || len(elem.Points) < 2 {
				continue
			}
			p := &canvas.Path{}
			p.MoveTo(flip(elem.Points[0][0], elem.Points[0][1]))
			for _, pt := range elem.Points[1:] {
				p.LineTo(flip(pt[0], pt[1]))
			}
			ctx.SetFillColor(canvas.Transparent)
			ctx.SetStrokeColor(stroke)
			ctx.SetStrokeWidth(elem.Style.StrokeWidth * k)
			ctx.DrawPath(0.0, 0.0, p)
		case render.Polygon:
			fill, stroke := polygonColors(elem.Style)
			if fill == nil && stroke == nil {
				continue
			}
			p := &canvas.Path{}
			for _, ring := range append([][]orb.Point{elem.Exterior}, elem.Holes...) {
				if len(ring) < 3 {
					continue
				}
				p.MoveTo(flip(ring[0][0], ring[0][1]))
				for _, pt := range ring[1:] {
					p.LineTo(flip(pt[0], pt[1]))
				}
				p.Close()
			}
			ctx.SetFillColor(colorOr(fill, canvas.Transparent))
			ctx.SetStrokeColor(colorOr(stroke, canvas.Transparent))
			ctx.SetStrokeWidth(elem.Style.StrokeWidth * k)
			ctx.DrawPath(0.0, 0.0, p)
		case render.Circle:
			fill := fillColor(elem.Style)
			if fill == nil || elem.Style.Mode == style.TextMode {
				continue
			}
			ctx.SetFillColor(fill)
			ctx.SetStrokeColor(canvas.Transparent)
			x, y := flip(elem.Center[0], elem.Center[1])
			ctx.DrawPath(x, y, canvas.Circle(elem.Radius*k))
		case render.Text:
			if elem.Text == "" {
				continue
			}
			family, ok := e.font(elem.Style.FontFamily)
			if !ok {
				skipped++
				continue
			}
			// font sizes are in pixels, faces in points
			face := family.Face(elem.Style.FontSize*k*72.0/25.4, canvas.Black)
			x, y := flip(elem.Position[0], elem.Position[1])
			ctx.DrawText(x, y, canvas.NewTextLine(face, elem.Text, canvas.Center))
		}
	}
	if 0 < skipped {
		e.Logger.Debug("skipped labels", zap.Int("labels", skipped))
	}
}

// Encode draws the elements and writes the image to w in the format of the options.
func (e *Exporter) Encode(w io.Writer, elements []render.Element, opts Options) error {
	c, err := e.Canvas(elements, opts)
	if err != nil {
		return err
	}
	writer, _ := opts.writer()
	return writer(w, c)
}

// Write draws the elements and writes the image to a file. An empty format is derived from the file extension.
func (e *Exporter) Write(filename string, elements []render.Element, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatFromFilename(filename)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := e.Encode(f, elements, opts); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.Logger.Info("wrote map",
		zap.String("filename", filename),
		zap.String("format", opts.Format),
		zap.Int("elements", len(elements)))
	return nil
}

func colorOr(c color.Color, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

func nrgba(c *style.Color) color.Color {
	if c == nil {
		return nil
	}
	return c.NRGBA()
}

func strokeColor(s style.RenderStyle) color.Color {
	if s.Stroke != nil {
		return s.Stroke.NRGBA()
	}
	return nrgba(s.Fill)
}

func fillColor(s style.RenderStyle) color.Color {
	if s.Fill != nil {
		return s.Fill.NRGBA()
	}
	return nrgba(s.Stroke)
}

func polygonColors(s style.RenderStyle) (color.Color, color.Color) {
	switch s.Mode {
	case style.LineMode:
		return nil, strokeColor(s)
	case style.FillMode:
		return fillColor(s), nil
	case style.TextMode:
		return nil, nil
	}
	return nrgba(s.Fill), nrgba(s.Stroke)
}
