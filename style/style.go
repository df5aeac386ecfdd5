package style

import (
	"fmt"

	"github.com/tdewolff/osmrender/osm"
)

// DrawMode is how a feature is drawn.
type DrawMode int

const (
	LineMode DrawMode = iota
	FillMode
	BothMode
	PointMode
	TextMode
)

// ParseDrawMode parses line, fill, both, point, or text.
func ParseDrawMode(s string) (DrawMode, bool) {
	switch s {
	case "line":
		return LineMode, true
	case "fill":
		return FillMode, true
	case "both":
		return BothMode, true
	case "point":
		return PointMode, true
	case "text":
		return TextMode, true
	}
	return LineMode, false
}

func (m DrawMode) String() string {
	switch m {
	case LineMode:
		return "line"
	case FillMode:
		return "fill"
	case BothMode:
		return "both"
	case PointMode:
		return "point"
	case TextMode:
		return "text"
	}
	return fmt.Sprintf("DrawMode(%d)", int(m))
}

// RenderStyle are the visual properties applied to a feature. Stroke and Fill are nil when not drawn. MinZoom and MaxZoom are carried along for the caller but not used while matching.
type RenderStyle struct {
	Mode        DrawMode
	Stroke      *Color
	Fill        *Color
	StrokeWidth float64
	FontFamily  string
	FontSize    float64
	TextField   string // tag key whose value is the label
	MinZoom     *int
	MaxZoom     *int
	PointRadius float64
}

// DefaultPointRadius is the radius of point features whose style has no radius.
const DefaultPointRadius = 3.0

// DefaultStyle returns a black line of width 1 with 12pt Arial labels.
func DefaultStyle() RenderStyle {
	black := RGB(0, 0, 0)
	return RenderStyle{
		Mode:        LineMode,
		Stroke:      &black,
		StrokeWidth: 1.0,
		FontFamily:  "Arial",
		FontSize:    12.0,
		PointRadius: DefaultPointRadius,
	}
}

// Radius returns the point radius, or DefaultPointRadius when unset.
func (s RenderStyle) Radius() float64 {
	if s.PointRadius <= 0.0 {
		return DefaultPointRadius
	}
	return s.PointRadius
}

// Rule assigns a style to every element matched by any of its selectors. A rule without selectors matches nothing.
type Rule struct {
	Selectors []Selector
	Style     RenderStyle
}

// Match returns true if any selector matches.
func (r Rule) Match(typ osm.Type, tags osm.Tags) bool {
	for _, sel := range r.Selectors {
		if sel.Match(typ, tags) {
			return true
		}
	}
	return false
}

// Stylesheet is an ordered list of rules where the first matching rule wins.
type Stylesheet struct {
	Name  string
	Rules []Rule
}

// Match returns the style of the first rule that matches, or false if no rule matches.
func (s *Stylesheet) Match(typ osm.Type, tags osm.Tags) (RenderStyle, bool) {
	for _, rule := range s.Rules {
		if rule.Match(typ, tags) {
			return rule.Style, true
		}
	}
	return RenderStyle{}, false
}
