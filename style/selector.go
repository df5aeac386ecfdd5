package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/osmrender/osm"
)

// Selector matches map elements. It is implemented by TagSelector, KindSelector, and ZoomSelector only.
type Selector interface {
	Match(osm.Type, osm.Tags) bool
	String() string
	selector()
}

// TagSelector matches elements with the tag key. If AnyValue is false the value must equal Value as well.
type TagSelector struct {
	Key      string
	Value    string
	AnyValue bool
}

// HasTag selects elements that have the key, with any value.
func HasTag(key string) TagSelector {
	return TagSelector{Key: key, AnyValue: true}
}

// TagEquals selects elements whose key has the given value.
func TagEquals(key, value string) TagSelector {
	return TagSelector{Key: key, Value: value}
}

func (s TagSelector) Match(_ osm.Type, tags osm.Tags) bool {
	val, ok := tags.Get(s.Key)
	return ok && (s.AnyValue || val == s.Value)
}

func (s TagSelector) String() string {
	if s.AnyValue {
		return s.Key
	}
	return s.Key + "=" + s.Value
}

func (TagSelector) selector() {}

// KindSelector matches elements of a type.
type KindSelector struct {
	Kind osm.Type
}

func (s KindSelector) Match(typ osm.Type, _ osm.Tags) bool {
	return typ == s.Kind
}

func (s KindSelector) String() string {
	return s.Kind.String()
}

func (KindSelector) selector() {}

// ZoomSelector is a zoom range. Elements carry no zoom level when matching so it always matches.
type ZoomSelector struct {
	Min, Max *int
}

func (ZoomSelector) Match(osm.Type, osm.Tags) bool {
	return true
}

func (s ZoomSelector) String() string {
	var lo, hi string
	if s.Min != nil {
		lo = strconv.Itoa(*s.Min)
	}
	if s.Max != nil {
		hi = strconv.Itoa(*s.Max)
	}
	return "zoom:" + lo + "-" + hi
}

func (ZoomSelector) selector() {}

// ParseSelector parses key, key=value, node, way, relation, or zoom:min-max where either bound may be omitted.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty selector")
	} else if typ, ok := osm.ParseType(s); ok {
		return KindSelector{typ}, nil
	} else if zoom, ok := strings.CutPrefix(s, "zoom:"); ok {
		lo, hi, ok := strings.Cut(zoom, "-")
		if !ok {
			return nil, fmt.Errorf("invalid zoom selector %q", s)
		}
		var sel ZoomSelector
		for _, bound := range []struct {
			s   string
			dst **int
		}{{lo, &sel.Min}, {hi, &sel.Max}} {
			if bound.s = strings.TrimSpace(bound.s); bound.s == "" {
				continue
			}
			v, err := strconv.Atoi(bound.s)
			if err != nil {
				return nil, fmt.Errorf("invalid zoom selector %q: %w", s, err)
			}
			*bound.dst = &v
		}
		return sel, nil
	} else if key, value, ok := strings.Cut(s, "="); ok {
		if key = strings.TrimSpace(key); key == "" {
			return nil, fmt.Errorf("invalid tag selector %q: empty key", s)
		}
		return TagEquals(key, strings.TrimSpace(value)), nil
	}
	return HasTag(s), nil
}
