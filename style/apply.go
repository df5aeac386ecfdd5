package style

import (
	"cmp"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tdewolff/osmrender/osm"
)

// Feature is a map element with its matched style, ready to be rendered.
type Feature struct {
	Kind     osm.Type
	ID       int64
	Geometry osm.Geometry
	Style    RenderStyle
	Label    string
	HasLabel bool
	ZIndex   int
}

// Option configures Stylesheet.Apply.
type Option func(*matcher)

// WithWorkers matches features on n goroutines. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(m *matcher) {
		m.workers = n
	}
}

// WithLogger sets the logger, which is silent by default.
func WithLogger(logger *zap.Logger) Option {
	return func(m *matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

type matcher struct {
	workers int
	logger  *zap.Logger
}

// minChunk is the least number of candidates matched per goroutine.
const minChunk = 1024

type candidate struct {
	kind osm.Type
	id   int64
	tags osm.Tags
	geom osm.Geometry
}

// Apply styles the map data with the stylesheet, see Stylesheet.Apply.
func Apply(data *osm.MapData, sheet *Stylesheet) []Feature {
	return sheet.Apply(data)
}

// Apply matches ways, tagged nodes, and multipolygon relations against the rules of the stylesheet. Candidates are ordered by kind and then by ID, so that ways precede nodes which precede relations. Elements without geometry or matching rule are dropped. The result is stably sorted by z-index, so that elements with equal z-index retain the candidate order.
func (s *Stylesheet) Apply(data *osm.MapData, opts ...Option) []Feature {
	if s == nil || data == nil {
		return nil
	}
	m := matcher{workers: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&m)
	}

	cands := candidates(data)
	features := make([]Feature, len(cands))
	matched := make([]bool, len(cands))
	match := func(i int) {
		features[i], matched[i] = s.feature(cands[i])
	}

	if m.workers <= 1 || len(cands) < 2*minChunk {
		for i := range cands {
			match(i)
		}
	} else {
		chunk := max(minChunk, (len(cands)+m.workers-1)/m.workers)
		var g errgroup.Group
		g.SetLimit(m.workers)
		for start := 0; start < len(cands); start += chunk {
			end := min(start+chunk, len(cands))
			g.Go(func() error {
				for i := start; i < end; i++ {
					match(i)
				}
				return nil
			})
		}
		_ = g.Wait() // matching never fails
	}

	n := 0
	for i := range features {
		if matched[i] {
			features[n] = features[i]
			n++
		}
	}
	features = features[:n:n]
	slices.SortStableFunc(features, func(a, b Feature) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	m.logger.Debug("styled features",
		zap.String("stylesheet", s.Name),
		zap.Int("candidates", len(cands)),
		zap.Int("features", len(features)))
	return features
}

func (s *Stylesheet) feature(c candidate) (Feature, bool) {
	style, ok := s.Match(c.kind, c.tags)
	if !ok {
		return Feature{}, false
	}
	f := Feature{
		Kind:     c.kind,
		ID:       c.id,
		Geometry: c.geom,
		Style:    style,
		ZIndex:   ZIndex(c.tags),
	}
	if style.TextField != "" {
		f.Label, f.HasLabel = c.tags.Get(style.TextField)
	}
	return f, true
}

func candidates(data *osm.MapData) []candidate {
	cands := make([]candidate, 0, len(data.Ways))
	for _, id := range data.SortedWayIDs() {
		way := data.Ways[id]
		if geom, ok := data.WayGeometry(way); ok {
			cands = append(cands, candidate{osm.WayType, id, way.Tags, geom})
		}
	}
	for _, id := range data.SortedNodeIDs() {
		if node := data.Nodes[id]; 0 < len(node.Tags) {
			cands = append(cands, candidate{osm.NodeType, id, node.Tags, osm.NodeGeometry(node)})
		}
	}
	for _, id := range data.SortedRelationIDs() {
		relation := data.Relations[id]
		for _, geom := range data.RelationGeometries(relation) {
			cands = append(cands, candidate{osm.RelationType, id, relation.Tags, geom})
		}
	}
	return cands
}

// ZIndex returns the drawing order of an element by its tags, lower values are drawn first.
func ZIndex(tags osm.Tags) int {
	if tags.Has("building") {
		return 100
	} else if tags.Has("landuse") {
		return 50
	} else if highway, ok := tags.Get("highway"); ok {
		switch highway {
		case "motorway", "trunk":
			return 80
		case "primary":
			return 70
		case "secondary":
			return 60
		case "tertiary":
			return 50
		}
		return 40
	} else if tags.Has("waterway") {
		return 30
	} else if tags.Has("natural") {
		return 20
	} else if tags.Has("amenity") {
		return 200
	}
	return 0
}
