package osm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

type gpxTrack struct {
	Name     string `xml:"name"`
	Segments []struct {
		Points []gpxPoint `xml:"trkpt"`
	} `xml:"trkseg"`
}

type gpxPoint struct {
	Lat  *string `xml:"lat,attr"`
	Lon  *string `xml:"lon,attr"`
	Ele  string  `xml:"ele"`
	Time string  `xml:"time"`
}

// ParseGPX reads the tracks of a GPX document. Routes and waypoints are ignored. Unparsable elevations and timestamps are left unset.
func ParseGPX(r io.Reader) ([]GpxTrack, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	tracks := []GpxTrack{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, gpxError(dec, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "trk" {
			continue
		}
		var trk gpxTrack
		if err := dec.DecodeElement(&trk, &start); err != nil {
			return nil, gpxError(dec, err)
		}

		track := GpxTrack{
			Name: strings.TrimSpace(trk.Name),
		}
		for _, seg := range trk.Segments {
			segment := GpxSegment{
				Points: make([]GpxPoint, 0, len(seg.Points)),
			}
			for _, pt := range seg.Points {
				point, err := pt.point()
				if err != nil {
					return nil, err
				}
				segment.Points = append(segment.Points, point)
			}
			track.Segments = append(track.Segments, segment)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// ParseGPXFile reads the tracks of a GPX file.
func ParseGPXFile(filename string) ([]GpxTrack, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseGPX(f)
}

func (pt gpxPoint) point() (GpxPoint, error) {
	if pt.Lat == nil {
		return GpxPoint{}, &ErrMissingField{Element: "trkpt", Field: "lat"}
	} else if pt.Lon == nil {
		return GpxPoint{}, &ErrMissingField{Element: "trkpt", Field: "lon"}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(*pt.Lat), 64)
	if err != nil {
		return GpxPoint{}, &ErrInvalidFormat{Element: "trkpt", Field: "lat", Value: *pt.Lat, Err: err}
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(*pt.Lon), 64)
	if err != nil {
		return GpxPoint{}, &ErrInvalidFormat{Element: "trkpt", Field: "lon", Value: *pt.Lon, Err: err}
	}
	if !validCoordinate(lat, lon) {
		return GpxPoint{}, &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}

	point := GpxPoint{Lat: lat, Lon: lon}
	if ele, err := strconv.ParseFloat(strings.TrimSpace(pt.Ele), 64); err == nil {
		point.Ele = &ele
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(pt.Time)); err == nil {
		t = t.UTC()
		point.Time = &t
	}
	return point, nil
}

func gpxError(dec *xml.Decoder, err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ErrXML{Offset: dec.InputOffset(), Err: err}
	}
	return fmt.Errorf("read GPX: %w", err)
}
