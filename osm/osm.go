package osm

import (
	"math"
	"slices"
	"time"

	"github.com/paulmach/orb"
)

type Tag struct {
	Key, Val string
}

// Tags is an ordered list of tags with unique keys.
type Tags []Tag

// Has returns true if the key exists in the tag list.
func (tags Tags) Has(key string) bool {
	for _, tag := range tags {
		if tag.Key == key {
			return true
		}
	}
	return false
}

// Find returns the value of a key in the tag list, or an empty string if the key doesn't exist.
func (tags Tags) Find(key string) string {
	val, _ := tags.Get(key)
	return val
}

// Get returns the value of a key and whether it exists.
func (tags Tags) Get(key string) (string, bool) {
	for _, tag := range tags {
		if tag.Key == key {
			return tag.Val, true
		}
	}
	return "", false
}

// Set adds a tag or overwrites the value of an existing key.
func (tags *Tags) Set(key, val string) {
	for i := range *tags {
		if (*tags)[i].Key == key {
			(*tags)[i].Val = val
			return
		}
	}
	*tags = append(*tags, Tag{key, val})
}

// ToMap converts the tag list to a map.
func (tags Tags) ToMap() map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[tag.Key] = tag.Val
	}
	return m
}

// Type is the kind of an OSM element.
type Type int

const (
	NodeType Type = iota
	WayType
	RelationType
)

// ParseType parses the member type names used by OSM XML.
func ParseType(s string) (Type, bool) {
	switch s {
	case "node":
		return NodeType, true
	case "way":
		return WayType, true
	case "relation":
		return RelationType, true
	}
	return 0, false
}

func (t Type) String() string {
	switch t {
	case NodeType:
		return "node"
	case WayType:
		return "way"
	case RelationType:
		return "relation"
	}
	return "unknown"
}

type Node struct {
	ID       int64
	Lat, Lon float64
	Tags     Tags
}

// Point returns the node's location with X the longitude and Y the latitude.
func (n Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

type Way struct {
	ID     int64
	Refs   []int64
	Tags   Tags
	Closed bool
}

// NewWay returns a way and determines whether it is closed.
func NewWay(id int64, refs []int64, tags Tags) Way {
	return Way{
		ID:     id,
		Refs:   refs,
		Tags:   tags,
		Closed: IsClosed(refs),
	}
}

// IsClosed returns true if the way has more than two node references and the first and last reference the same node.
func IsClosed(refs []int64) bool {
	return 2 < len(refs) && refs[0] == refs[len(refs)-1]
}

type Member struct {
	Type Type
	ID   int64
	Role string
}

type Relation struct {
	ID      int64
	Members []Member
	Tags    Tags
}

// Bounds is the geographic extent of the data. The zero value is not empty, use EmptyBounds instead.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// EmptyBounds returns bounds that contain nothing and grow with every call to Extend.
func EmptyBounds() Bounds {
	return Bounds{
		MinLat: math.Inf(1),
		MaxLat: math.Inf(-1),
		MinLon: math.Inf(1),
		MaxLon: math.Inf(-1),
	}
}

// IsEmpty returns true if no coordinate has been added.
func (b Bounds) IsEmpty() bool {
	return b.MaxLat < b.MinLat || b.MaxLon < b.MinLon
}

// Extend widens the bounds to include the coordinate.
func (b *Bounds) Extend(lat, lon float64) {
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLon = math.Max(b.MaxLon, lon)
}

func (b Bounds) Width() float64 {
	return b.MaxLon - b.MinLon
}

func (b Bounds) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Center returns the midpoint as (lat, lon).
func (b Bounds) Center() (float64, float64) {
	return (b.MinLat + b.MaxLat) / 2.0, (b.MinLon + b.MaxLon) / 2.0
}

func (b Bounds) Contains(lat, lon float64) bool {
	return b.MinLat <= lat && lat <= b.MaxLat && b.MinLon <= lon && lon <= b.MaxLon
}

// Expand returns the bounds grown by d degrees on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - d,
		MaxLat: b.MaxLat + d,
		MinLon: b.MinLon - d,
		MaxLon: b.MaxLon + d,
	}
}

// Bound converts to an orb bound with X the longitude and Y the latitude.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// GpxTrack is a named GPS track.
type GpxTrack struct {
	Name     string
	Segments []GpxSegment
}

type GpxSegment struct {
	Points []GpxPoint
}

type GpxPoint struct {
	Lat, Lon float64
	Ele      *float64
	Time     *time.Time
}

// MapData holds all entities of a map. Lookups are by ID; the iteration order of the maps carries no meaning, use the Sorted* methods for a deterministic order.
type MapData struct {
	Nodes     map[int64]Node
	Ways      map[int64]Way
	Relations map[int64]Relation
	Tracks    []GpxTrack
	Bounds    Bounds
}

func NewMapData() *MapData {
	return &MapData{
		Nodes:     map[int64]Node{},
		Ways:      map[int64]Way{},
		Relations: map[int64]Relation{},
		Bounds:    EmptyBounds(),
	}
}

// AddNode adds or replaces a node and widens the bounds.
func (m *MapData) AddNode(node Node) {
	m.Bounds.Extend(node.Lat, node.Lon)
	m.Nodes[node.ID] = node
}

func (m *MapData) AddWay(way Way) {
	m.Ways[way.ID] = way
}

func (m *MapData) AddRelation(relation Relation) {
	m.Relations[relation.ID] = relation
}

// AddTrack appends a GPS track and widens the bounds with its points.
func (m *MapData) AddTrack(track GpxTrack) {
	for _, segment := range track.Segments {
		for _, point := range segment.Points {
			m.Bounds.Extend(point.Lat, point.Lon)
		}
	}
	m.Tracks = append(m.Tracks, track)
}

func (m *MapData) SortedNodeIDs() []int64 {
	return sortedKeys(m.Nodes)
}

func (m *MapData) SortedWayIDs() []int64 {
	return sortedKeys(m.Ways)
}

func (m *MapData) SortedRelationIDs() []int64 {
	return sortedKeys(m.Relations)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SuperRelations returns the relations that have other relations as members, ordered by ID.
func (m *MapData) SuperRelations() []Relation {
	relations := []Relation{}
	for _, id := range m.SortedRelationIDs() {
		relation := m.Relations[id]
		for _, member := range relation.Members {
			if member.Type == RelationType {
				relations = append(relations, relation)
				break
			}
		}
	}
	return relations
}
