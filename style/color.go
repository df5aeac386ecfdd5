package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Color is a non-premultiplied RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b, 255}
}

// RGBA returns a color with the given alpha.
func RGBA(r, g, b, a uint8) Color {
	return Color{r, g, b, a}
}

// NRGBA returns the color for use with image/color and canvas.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{c.R, c.G, c.B, c.A}
}

// Hex returns the color as #RRGGBBAA.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return c.Hex()
}

// MarshalYAML writes the color as a hex string.
func (c Color) MarshalYAML() (any, error) {
	return c.Hex(), nil
}

// UnmarshalYAML parses the color with ParseColor.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	col, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = col
	return nil
}

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 255},
	"green":       {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses #RRGGBB, #RRGGBBAA, rgb(r, g, b), rgba(r, g, b, a) with alpha in [0,1], or a color name. Besides red, green, blue, white, black, and transparent, all SVG color names are accepted.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 && len(hex) != 8 {
			return Color{}, fmt.Errorf("invalid color %q: expected 6 or 8 hex digits", s)
		}
		var c [4]uint8
		c[3] = 255
		for i := 0; i < len(hex); i += 2 {
			v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			c[i/2] = uint8(v)
		}
		return Color{c[0], c[1], c[2], c[3]}, nil
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		inner := lower[strings.IndexByte(lower, '(')+1:]
		inner, ok := strings.CutSuffix(inner, ")")
		if !ok {
			return Color{}, fmt.Errorf("invalid color %q: missing closing parenthesis", s)
		}
		parts := strings.Split(inner, ",")
		if len(parts) != 3 && len(parts) != 4 {
			return Color{}, fmt.Errorf("invalid color %q: expected 3 or 4 components", s)
		}
		var c [4]uint8
		c[3] = 255
		for i, part := range parts[:3] {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			c[i] = uint8(v)
		}
		if len(parts) == 4 {
			a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil || a < 0.0 || 1.0 < a {
				return Color{}, fmt.Errorf("invalid color %q: alpha must be in [0,1]", s)
			}
			c[3] = uint8(a*255.0 + 0.5)
		}
		return Color{c[0], c[1], c[2], c[3]}, nil
	}

	if c, ok := namedColors[lower]; ok {
		return c, nil
	} else if c, ok := colornames.Map[lower]; ok {
		return Color{c.R, c.G, c.B, c.A}, nil
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
