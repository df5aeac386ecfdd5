package osm

// FilterFunc reports whether an object is selected.
type FilterFunc func(Type, int64, Tags) bool

// Extract returns the subset of the data that is within the bounds. If filter is not nil, it will also filter based on object types, IDs, or tags.
// - Nodes within or on bounds and ways that pass through the bounds are matched. Ways keep all their nodes, including those outside the bounds.
// - Relations are matched when any of their members is matched, their member lists are kept as is.
// - Tracks with at least one point within the bounds are matched.
// The bounds of the result are recomputed from the matched nodes and tracks.
func (m *MapData) Extract(bounds Bounds, filter FilterFunc) *MapData {
	selected := func(typ Type, id int64, tags Tags) bool {
		return filter == nil || filter(typ, id, tags)
	}

	outcodes := make(map[int64]uint8, len(m.Nodes))
	for id, node := range m.Nodes {
		outcodes[id] = cohenSutherlandOutcode(bounds, node.Lat, node.Lon)
	}

	sub := NewMapData()
	for _, id := range m.SortedNodeIDs() {
		node := m.Nodes[id]
		if outcodes[id] == 0b0000 && selected(NodeType, node.ID, node.Tags) {
			sub.AddNode(node)
		}
	}
	for _, id := range m.SortedWayIDs() {
		way := m.Ways[id]
		if !selected(WayType, way.ID, way.Tags) || !passesThrough(way.Refs, outcodes) {
			continue
		}
		sub.AddWay(way)

		// add node dependents
		for _, ref := range way.Refs {
			if node, ok := m.Nodes[ref]; ok {
				sub.AddNode(node)
			}
		}
	}

	// super relations are matched by their matched children, repeat until nothing changes
	for changed := true; changed; {
		changed = false
		for _, id := range m.SortedRelationIDs() {
			relation := m.Relations[id]
			if _, ok := sub.Relations[id]; ok || !selected(RelationType, relation.ID, relation.Tags) {
				continue
			}
			for _, member := range relation.Members {
				var ok bool
				switch member.Type {
				case NodeType:
					_, ok = sub.Nodes[member.ID]
				case WayType:
					_, ok = sub.Ways[member.ID]
				case RelationType:
					_, ok = sub.Relations[member.ID]
				}
				if ok {
					sub.AddRelation(relation)
					changed = true
					break
				}
			}
		}
	}

	for _, track := range m.Tracks {
		if trackInside(track, bounds) {
			sub.AddTrack(track)
		}
	}
	return sub
}

// passesThrough returns true if any resolved node is within the bounds, or if a segment between two resolved nodes is not trivially outside.
func passesThrough(refs []int64, outcodes map[int64]uint8) bool {
	prevOutcode, hasPrev := uint8(0), false
	for _, ref := range refs {
		outcode, ok := outcodes[ref]
		if !ok {
			continue
		} else if outcode == 0b0000 || hasPrev && prevOutcode&outcode == 0 {
			return true
		}
		prevOutcode, hasPrev = outcode, true
	}
	return false
}

func trackInside(track GpxTrack, bounds Bounds) bool {
	for _, segment := range track.Segments {
		for _, point := range segment.Points {
			if bounds.Contains(point.Lat, point.Lon) {
				return true
			}
		}
	}
	return false
}

func cohenSutherlandOutcode(bounds Bounds, lat, lon float64) uint8 {
	code := uint8(0b0000)
	if lon < bounds.MinLon {
		code |= 0b0001 // left
	} else if bounds.MaxLon < lon {
		code |= 0b0010 // right
	}
	if lat < bounds.MinLat {
		code |= 0b0100 // bottom
	} else if bounds.MaxLat < lat {
		code |= 0b1000 // top
	}
	return code
}
