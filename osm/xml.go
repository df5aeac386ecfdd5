package osm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

type xmlState int

const (
	inNone xmlState = iota
	inNode
	inWay
	inRelation
)

// XMLParser parses OSM XML documents into MapData.
type XMLParser struct {
	Logger *zap.Logger
}

// ParseXML parses an OSM XML document.
func ParseXML(r io.Reader) (*MapData, error) {
	return XMLParser{}.Parse(r)
}

// ParseXMLString parses an OSM XML document held in memory.
func ParseXMLString(s string) (*MapData, error) {
	return XMLParser{}.Parse(strings.NewReader(s))
}

// ParseXMLFile parses an OSM XML file.
func ParseXMLFile(filename string) (*MapData, error) {
	return XMLParser{}.ParseFile(filename)
}

func (p XMLParser) ParseFile(filename string) (*MapData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads the document in a single forward pass. Any error aborts the parse and no data is returned.
func (p XMLParser) Parse(r io.Reader) (*MapData, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	z := xmlParser{
		log:  log,
		data: NewMapData(),
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return nil, &ErrXML{Offset: dec.InputOffset(), Err: err}
			}
			return nil, fmt.Errorf("read OSM XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := z.start(t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			z.end(t)
		}
	}

	log.Debug("parsed OSM XML",
		zap.Int("nodes", len(z.data.Nodes)),
		zap.Int("ways", len(z.data.Ways)),
		zap.Int("relations", len(z.data.Relations)),
	)
	return z.data, nil
}

// xmlParser holds the state of the currently open element.
type xmlParser struct {
	log  *zap.Logger
	data *MapData

	state    xmlState
	id       int64
	lat, lon float64
	tags     Tags
	refs     []int64
	members  []Member
}

func (z *xmlParser) start(t xml.StartElement) error {
	var err error
	switch t.Name.Local {
	case "node":
		if z.state != inNone {
			return nil
		}
		if z.id, err = parseID(t, "node", "id"); err != nil {
			return err
		} else if z.lat, err = parseFloat(t, "node", "lat"); err != nil {
			return err
		} else if z.lon, err = parseFloat(t, "node", "lon"); err != nil {
			return err
		} else if !validCoordinate(z.lat, z.lon) {
			return &ErrInvalidCoordinate{ID: z.id, Lat: z.lat, Lon: z.lon}
		}
		z.state = inNode
		z.tags = nil
	case "way":
		if z.state != inNone {
			return nil
		}
		if z.id, err = parseID(t, "way", "id"); err != nil {
			return err
		}
		z.state = inWay
		z.tags = nil
		z.refs = nil
	case "relation":
		if z.state != inNone {
			return nil
		}
		if z.id, err = parseID(t, "relation", "id"); err != nil {
			return err
		}
		z.state = inRelation
		z.tags = nil
		z.members = nil
	case "tag":
		if z.state == inNone {
			return nil
		}
		key, ok := attr(t, "k")
		if !ok {
			return &ErrMissingField{Element: "tag", Field: "k"}
		}
		val, ok := attr(t, "v")
		if !ok {
			return &ErrMissingField{Element: "tag", Field: "v"}
		}
		z.tags.Set(key, val)
	case "nd":
		if z.state != inWay {
			return nil
		}
		if _, ok := attr(t, "ref"); !ok {
			z.log.Debug("skipping nd without ref", zap.Int64("way", z.id))
			return nil
		}
		ref, err := parseID(t, "nd", "ref")
		if err != nil {
			return err
		}
		z.refs = append(z.refs, ref)
	case "member":
		if z.state != inRelation {
			return nil
		}
		typ, hasType := attr(t, "type")
		_, hasRef := attr(t, "ref")
		if !hasType || !hasRef {
			z.log.Debug("skipping member without type or ref", zap.Int64("relation", z.id))
			return nil
		}
		memberType, ok := ParseType(typ)
		if !ok {
			return &ErrInvalidFormat{Element: "member", Field: "type", Value: typ}
		}
		ref, err := parseID(t, "member", "ref")
		if err != nil {
			return err
		}
		role, _ := attr(t, "role")
		z.members = append(z.members, Member{
			Type: memberType,
			ID:   ref,
			Role: role,
		})
	}
	return nil
}

func (z *xmlParser) end(t xml.EndElement) {
	switch {
	case t.Name.Local == "node" && z.state == inNode:
		z.data.AddNode(Node{
			ID:   z.id,
			Lat:  z.lat,
			Lon:  z.lon,
			Tags: z.tags,
		})
	case t.Name.Local == "way" && z.state == inWay:
		z.data.AddWay(NewWay(z.id, z.refs, z.tags))
	case t.Name.Local == "relation" && z.state == inRelation:
		z.data.AddRelation(Relation{
			ID:      z.id,
			Members: z.members,
			Tags:    z.tags,
		})
	default:
		return
	}
	z.state = inNone
	z.tags, z.refs, z.members = nil, nil, nil
}

func attr(t xml.StartElement, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseID(t xml.StartElement, element, field string) (int64, error) {
	s, ok := attr(t, field)
	if !ok {
		return 0, &ErrMissingField{Element: element, Field: field}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ErrInvalidFormat{Element: element, Field: field, Value: s, Err: err}
	}
	return id, nil
}

func parseFloat(t xml.StartElement, element, field string) (float64, error) {
	s, ok := attr(t, field)
	if !ok {
		return 0.0, &ErrMissingField{Element: element, Field: field}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0, &ErrInvalidFormat{Element: element, Field: field, Value: s, Err: err}
	}
	return f, nil
}
