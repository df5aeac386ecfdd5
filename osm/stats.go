package osm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
)

const MaxRelationDepth = 16

// Hist keeps a uniform reservoir sample of values to estimate quantiles.
type Hist struct {
	min, max int
	count    uint64
	samples  []int
	rng      *rand.Rand
}

func NewHist(maxSamples int) *Hist {
	return &Hist{
		rng:     rand.New(rand.NewPCG(34234, 923832458)),
		samples: make([]int, 0, maxSamples),
	}
}

func (h *Hist) Add(v int) {
	if h.count == 0 {
		h.min, h.max = v, v
	} else if h.max < v {
		h.max = v
	} else if v < h.min {
		h.min = v
	}
	h.count++

	if len(h.samples) < cap(h.samples) {
		h.samples = append(h.samples, v)
	} else if i := int(h.rng.Uint64N(h.count)); i < len(h.samples) {
		h.samples[i] = v
	}
}

func (h *Hist) Count() uint64 {
	return h.count
}

func (h *Hist) Quantile(phi float64) float64 {
	return h.Quantiles([]float64{phi})[0]
}

func (h *Hist) Quantiles(phis []float64) []float64 {
	slices.Sort(h.samples)
	qs := make([]float64, len(phis))
	for i, phi := range phis {
		if len(h.samples) == 0 || math.IsNaN(phi) {
			qs[i] = math.NaN()
		} else if phi <= 0.0 {
			qs[i] = float64(h.min)
		} else if 1.0 <= phi {
			qs[i] = float64(h.max)
		} else {
			idx := min(int(phi*float64(len(h.samples)-1)+0.5), len(h.samples)-1)
			qs[i] = float64(h.samples[idx])
		}
	}
	return qs
}

// Mean returns the mean and sample standard deviation of the samples.
func (h *Hist) Mean() (float64, float64) {
	if len(h.samples) == 0 {
		return math.NaN(), math.NaN()
	}
	var mean, stddev float64
	for _, sample := range h.samples {
		mean += float64(sample)
	}
	mean /= float64(len(h.samples))
	if len(h.samples) == 1 {
		return mean, 0.0
	}
	for _, sample := range h.samples {
		stddev += (mean - float64(sample)) * (mean - float64(sample))
	}
	return mean, math.Sqrt(stddev / (float64(len(h.samples)) - 1.0))
}

func (h *Hist) String() string {
	mean, stddev := h.Mean()
	qs := h.Quantiles([]float64{0.5, 0.75, 0.9, 0.99})
	return fmt.Sprintf("mean=%.1f±%.1f  q(.5,.75,.9,.99)=%v", mean, stddev, qs)
}

// Stats summarises the entities of a map and the references between them.
type Stats struct {
	NumNodes, NumWays, NumRelations          int
	NodeIDRange, WayIDRange, RelationIDRange [2]int64 // lowest and highest ID for entity
	Bounds                                   Bounds

	NumTaggedNodes int
	NumClosedWays  int

	WayNodes              int // distinct nodes referenced by ways
	RelationNodes         int // distinct nodes referenced by relations
	DoublyReferencedNodes int // existing nodes referenced by ways and relations
	RelationWays          int // distinct ways referenced by relations
	RelationRelations     int // distinct relations referenced by relations

	MissingWayNodes          int // referenced nodes by ways that are missing
	MissingRelationNodes     int // referenced nodes by relations that are missing
	MissingRelationWays      int // referenced ways by relations that are missing
	MissingRelationRelations int // referenced relations by relations that are missing

	HistWayNodes          *Hist
	HistRelationNodes     *Hist
	HistRelationWays      *Hist
	HistRelationRelations *Hist

	NumRelationDepths     []int // number of relations per nesting level, the first entry counts relations that are no member of another relation
	NumRecursiveRelations int   // relations nested deeper than MaxRelationDepth, which are usually cycles
	NumSuperRelations     int

	NumTracks, NumTrackPoints int
}

// ComputeStats computes the statistics of the map data.
func ComputeStats(data *MapData) Stats {
	stats := Stats{
		NumNodes:              len(data.Nodes),
		NumWays:               len(data.Ways),
		NumRelations:          len(data.Relations),
		Bounds:                data.Bounds,
		HistWayNodes:          NewHist(2048),
		HistRelationNodes:     NewHist(2048),
		HistRelationWays:      NewHist(2048),
		HistRelationRelations: NewHist(2048),
		NumTracks:             len(data.Tracks),
	}

	nodeIDs := data.SortedNodeIDs()
	if 0 < len(nodeIDs) {
		stats.NodeIDRange = [2]int64{nodeIDs[0], nodeIDs[len(nodeIDs)-1]}
	}
	for _, id := range nodeIDs {
		if 0 < len(data.Nodes[id].Tags) {
			stats.NumTaggedNodes++
		}
	}

	wayNodeIDs := map[int64]bool{}
	wayIDs := data.SortedWayIDs()
	if 0 < len(wayIDs) {
		stats.WayIDRange = [2]int64{wayIDs[0], wayIDs[len(wayIDs)-1]}
	}
	for _, id := range wayIDs {
		way := data.Ways[id]
		if way.Closed {
			stats.NumClosedWays++
		}
		stats.HistWayNodes.Add(len(way.Refs))
		for _, ref := range way.Refs {
			wayNodeIDs[ref] = true
		}
	}

	relationNodeIDs := map[int64]bool{}
	relationWayIDs := map[int64]bool{}
	relationParents := map[int64][]int64{}
	relationIDs := data.SortedRelationIDs()
	if 0 < len(relationIDs) {
		stats.RelationIDRange = [2]int64{relationIDs[0], relationIDs[len(relationIDs)-1]}
	}
	for _, id := range relationIDs {
		relation := data.Relations[id]
		var numNodes, numWays, numRelations int
		for _, member := range relation.Members {
			switch member.Type {
			case NodeType:
				relationNodeIDs[member.ID] = true
				numNodes++
			case WayType:
				relationWayIDs[member.ID] = true
				numWays++
			case RelationType:
				relationParents[member.ID] = append(relationParents[member.ID], relation.ID)
				numRelations++
			}
		}
		stats.HistRelationNodes.Add(numNodes)
		stats.HistRelationWays.Add(numWays)
		stats.HistRelationRelations.Add(numRelations)
		if 0 < numRelations {
			stats.NumSuperRelations++
		}
	}

	for id := range wayNodeIDs {
		if _, ok := data.Nodes[id]; !ok {
			stats.MissingWayNodes++
		}
	}
	for id := range relationNodeIDs {
		if _, ok := data.Nodes[id]; !ok {
			stats.MissingRelationNodes++
		} else if wayNodeIDs[id] {
			stats.DoublyReferencedNodes++
		}
	}
	for id := range relationWayIDs {
		if _, ok := data.Ways[id]; !ok {
			stats.MissingRelationWays++
		}
	}
	for id := range relationParents {
		if _, ok := data.Relations[id]; !ok {
			stats.MissingRelationRelations++
		}
	}
	for _, id := range relationIDs {
		depth := relationDepth(id, relationParents, 0)
		if depth == math.MaxInt {
			stats.NumRecursiveRelations++
			continue
		}
		for len(stats.NumRelationDepths) <= depth {
			stats.NumRelationDepths = append(stats.NumRelationDepths, 0)
		}
		stats.NumRelationDepths[depth]++
	}

	stats.WayNodes = len(wayNodeIDs)
	stats.RelationNodes = len(relationNodeIDs)
	stats.RelationWays = len(relationWayIDs)
	stats.RelationRelations = len(relationParents)

	for _, track := range data.Tracks {
		for _, segment := range track.Segments {
			stats.NumTrackPoints += len(segment.Points)
		}
	}
	return stats
}

// relationDepth returns the number of ancestors on the longest path to a root relation, or math.MaxInt when it exceeds MaxRelationDepth.
func relationDepth(id int64, parents map[int64][]int64, depth int) int {
	if MaxRelationDepth <= depth {
		return math.MaxInt
	}
	maxDepth := depth
	for _, parent := range parents[id] {
		if d := relationDepth(parent, parents, depth+1); maxDepth < d {
			maxDepth = d
		}
	}
	return maxDepth
}

func percentage(n, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(n) / float64(total) * 100.0
}

func (s Stats) String() string {
	if s.NumNodes == 0 && s.NumWays == 0 && s.NumRelations == 0 && s.NumTracks == 0 {
		return "empty"
	}

	wayOnlyNodes := s.WayNodes - s.MissingWayNodes - s.DoublyReferencedNodes
	relationOnlyNodes := s.RelationNodes - s.MissingRelationNodes - s.DoublyReferencedNodes
	rootNodes := s.NumNodes - wayOnlyNodes - relationOnlyNodes - s.DoublyReferencedNodes
	relationWays := s.RelationWays - s.MissingRelationWays
	relationRelations := s.RelationRelations - s.MissingRelationRelations

	sb := &strings.Builder{}
	if 0 < s.NumNodes {
		fmt.Fprintf(sb, "Nodes:        num=%v  id=[%v,%v]  tagged=%v\n", s.NumNodes, s.NodeIDRange[0], s.NodeIDRange[1], s.NumTaggedNodes)
		fmt.Fprintf(sb, "  parents:    relation=%v (%.1f%%)  way=%v (%.1f%%)  both=%v (%.1f%%)  none=%v (%.1f%%)\n\n", relationOnlyNodes, percentage(relationOnlyNodes, s.NumNodes), wayOnlyNodes, percentage(wayOnlyNodes, s.NumNodes), s.DoublyReferencedNodes, percentage(s.DoublyReferencedNodes, s.NumNodes), rootNodes, percentage(rootNodes, s.NumNodes))
	}
	if 0 < s.NumWays {
		fmt.Fprintf(sb, "Ways:         num=%v  id=[%v,%v]  closed=%v\n", s.NumWays, s.WayIDRange[0], s.WayIDRange[1], s.NumClosedWays)
		fmt.Fprintf(sb, "  parents:    relation=%v (%.1f%%)  none=%v (%.1f%%)\n", relationWays, percentage(relationWays, s.NumWays), s.NumWays-relationWays, percentage(s.NumWays-relationWays, s.NumWays))
		fmt.Fprintf(sb, "  nodes:      num=%v  %v  missing=%v\n\n", s.WayNodes, s.HistWayNodes, s.MissingWayNodes)
	}
	if 0 < s.NumRelations {
		fmt.Fprintf(sb, "Relations:    num=%v  id=[%v,%v]  super=%v\n", s.NumRelations, s.RelationIDRange[0], s.RelationIDRange[1], s.NumSuperRelations)
		fmt.Fprintf(sb, "  parents:    relation=%v (%.1f%%)  none=%v (%.1f%%)\n", relationRelations, percentage(relationRelations, s.NumRelations), s.NumRelations-relationRelations, percentage(s.NumRelations-relationRelations, s.NumRelations))
		fmt.Fprintf(sb, "  depths:   ")
		for depth, num := range s.NumRelationDepths {
			fmt.Fprintf(sb, "  %v=%v", depth, num)
		}
		if 0 < s.NumRecursiveRelations {
			fmt.Fprintf(sb, "  RECURSIVE=%v", s.NumRecursiveRelations)
		}
		fmt.Fprintf(sb, "\n\n")
		fmt.Fprintf(sb, "  nodes:      num=%v  %v  missing=%v\n", s.RelationNodes, s.HistRelationNodes, s.MissingRelationNodes)
		fmt.Fprintf(sb, "  ways:       num=%v  %v  missing=%v\n", s.RelationWays, s.HistRelationWays, s.MissingRelationWays)
		fmt.Fprintf(sb, "  relations:  num=%v  %v  missing=%v\n", s.RelationRelations, s.HistRelationRelations, s.MissingRelationRelations)
	}
	if 0 < s.NumTracks {
		fmt.Fprintf(sb, "Tracks:       num=%v  points=%v\n", s.NumTracks, s.NumTrackPoints)
	}
	if !s.Bounds.IsEmpty() {
		fmt.Fprintf(sb, "Bounds:       lon=[%v,%v]  lat=[%v,%v]\n", s.Bounds.MinLon, s.Bounds.MaxLon, s.Bounds.MinLat, s.Bounds.MaxLat)
	}
	return sb.String()
}
