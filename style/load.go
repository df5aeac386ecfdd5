package style

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlStylesheet struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Rules     []yamlRule        `yaml:"rules"`
}

type yamlRule struct {
	Select []string  `yaml:"select"`
	Style  yamlStyle `yaml:"style"`
}

type yamlStyle struct {
	Draw       string   `yaml:"draw"`
	Stroke     *string  `yaml:"stroke"`
	Fill       *string  `yaml:"fill"`
	Width      *float64 `yaml:"width"`
	FontFamily string   `yaml:"font-family"`
	FontSize   *float64 `yaml:"font-size"`
	Text       string   `yaml:"text"`
	MinZoom    *int     `yaml:"min-zoom"`
	MaxZoom    *int     `yaml:"max-zoom"`
	Radius     *float64 `yaml:"radius"`
}

// LoadStylesheet reads a YAML stylesheet. Colors may refer to an entry of the variables map by $name, and the color none disables stroke or fill. An unknown draw mode falls back to line.
//
//	name: example
//	variables:
//	  water: "#AAD3DF"
//	rules:
//	  - select: [natural=water, waterway]
//	    style: {draw: fill, fill: $water, stroke: none}
//	  - select: [amenity]
//	    style: {draw: point, fill: crimson, radius: 4, text: name}
func LoadStylesheet(r io.Reader) (*Stylesheet, error) {
	var doc yamlStylesheet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("stylesheet: %w", err)
	}

	sheet := &Stylesheet{
		Name:  doc.Name,
		Rules: make([]Rule, 0, len(doc.Rules)),
	}
	for i, yrule := range doc.Rules {
		rule, err := yrule.rule(doc.Variables)
		if err != nil {
			return nil, fmt.Errorf("stylesheet: rule %d: %w", i+1, err)
		}
		sheet.Rules = append(sheet.Rules, rule)
	}
	return sheet, nil
}

// LoadStylesheetFile reads a YAML stylesheet from a file. Its name defaults to the file name without extension.
func LoadStylesheetFile(filename string) (*Stylesheet, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := LoadStylesheet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if sheet.Name == "" {
		sheet.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return sheet, nil
}

func (r yamlRule) rule(vars map[string]string) (Rule, error) {
	if len(r.Select) == 0 {
		return Rule{}, fmt.Errorf("no selectors")
	}
	rule := Rule{
		Selectors: make([]Selector, 0, len(r.Select)),
		Style:     DefaultStyle(),
	}
	for _, s := range r.Select {
		sel, err := ParseSelector(s)
		if err != nil {
			return Rule{}, err
		}
		rule.Selectors = append(rule.Selectors, sel)
	}

	style := &rule.Style
	if r.Style.Draw != "" {
		style.Mode, _ = ParseDrawMode(r.Style.Draw)
	}
	var err error
	if r.Style.Stroke != nil {
		if style.Stroke, err = resolveColor(*r.Style.Stroke, vars); err != nil {
			return Rule{}, fmt.Errorf("stroke: %w", err)
		}
	}
	if r.Style.Fill != nil {
		if style.Fill, err = resolveColor(*r.Style.Fill, vars); err != nil {
			return Rule{}, fmt.Errorf("fill: %w", err)
		}
	}
	if r.Style.Width != nil {
		style.StrokeWidth = *r.Style.Width
	}
	if r.Style.FontFamily != "" {
		style.FontFamily = r.Style.FontFamily
	}
	if r.Style.FontSize != nil {
		style.FontSize = *r.Style.FontSize
	}
	if r.Style.Radius != nil {
		style.PointRadius = *r.Style.Radius
	}
	style.TextField = r.Style.Text
	style.MinZoom = r.Style.MinZoom
	style.MaxZoom = r.Style.MaxZoom
	return rule, nil
}

func resolveColor(s string, vars map[string]string) (*Color, error) {
	s = strings.TrimSpace(s)
	if name, ok := strings.CutPrefix(s, "$"); ok {
		val, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("undefined variable %q", name)
		}
		s = val
	}
	if strings.EqualFold(s, "none") {
		return nil, nil
	}
	c, err := ParseColor(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
