package style

func colorPtr(r, g, b uint8) *Color {
	c := RGB(r, g, b)
	return &c
}

func line(r, g, b uint8, width float64) RenderStyle {
	style := DefaultStyle()
	style.Stroke = colorPtr(r, g, b)
	style.StrokeWidth = width
	return style
}

func area(r, g, b uint8) RenderStyle {
	style := DefaultStyle()
	style.Mode = FillMode
	style.Stroke = nil
	style.Fill = colorPtr(r, g, b)
	return style
}

func point(r, g, b uint8, radius float64) RenderStyle {
	style := DefaultStyle()
	style.Mode = PointMode
	style.Stroke = colorPtr(r, g, b)
	style.Fill = colorPtr(r, g, b)
	style.PointRadius = radius
	style.TextField = "name"
	return style
}

func labeled(style RenderStyle) RenderStyle {
	style.TextField = "name"
	return style
}

// Default returns the built-in stylesheet with water, buildings, roads, green areas, landuse, railways, and points of interest.
func Default() *Stylesheet {
	water := area(170, 211, 223)
	water.Stroke = colorPtr(140, 181, 193)

	building := area(218, 218, 218)
	building.Mode = BothMode
	building.Stroke = colorPtr(180, 180, 180)
	building.StrokeWidth = 0.5

	park := area(194, 235, 164)
	park.Stroke = colorPtr(174, 215, 144)
	park.StrokeWidth = 0.5

	return &Stylesheet{
		Name: "default",
		Rules: []Rule{
			{[]Selector{TagEquals("natural", "water")}, water},
			{[]Selector{HasTag("waterway")}, labeled(line(170, 211, 223, 2.0))},
			{[]Selector{HasTag("building")}, building},
			{[]Selector{TagEquals("highway", "motorway")}, labeled(line(231, 114, 0, 6.0))},
			{[]Selector{TagEquals("highway", "trunk")}, labeled(line(255, 156, 0, 5.0))},
			{[]Selector{TagEquals("highway", "primary")}, labeled(line(255, 205, 0, 4.0))},
			{[]Selector{TagEquals("highway", "secondary")}, labeled(line(255, 230, 100, 3.5))},
			{[]Selector{TagEquals("highway", "tertiary")}, labeled(line(255, 245, 150, 3.0))},
			{[]Selector{TagEquals("highway", "residential")}, labeled(line(255, 255, 255, 2.5))},
			{[]Selector{TagEquals("highway", "service")}, line(240, 240, 240, 1.5)},
			{[]Selector{TagEquals("highway", "footway")}, line(200, 200, 200, 1.0)},
			{[]Selector{TagEquals("leisure", "park")}, park},
			{[]Selector{TagEquals("natural", "wood")}, area(173, 209, 158)},
			{[]Selector{TagEquals("landuse", "forest")}, area(173, 209, 158)},
			{[]Selector{TagEquals("landuse", "grass")}, area(194, 235, 164)},
			{[]Selector{TagEquals("landuse", "commercial")}, area(255, 230, 230)},
			{[]Selector{TagEquals("landuse", "industrial")}, area(230, 220, 240)},
			{[]Selector{TagEquals("landuse", "residential")}, area(255, 255, 230)},
			{[]Selector{HasTag("railway")}, line(100, 100, 100, 2.0)},
			{[]Selector{HasTag("amenity")}, point(220, 20, 60, 4.0)},
			{[]Selector{HasTag("shop")}, point(30, 144, 255, 3.5)},
			{[]Selector{HasTag("tourism")}, point(50, 205, 50, 3.5)},
			{[]Selector{HasTag("highway")}, line(200, 200, 200, 1.5)},
		},
	}
}
