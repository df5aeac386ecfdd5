package osm

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tdewolff/test"
)

func TestParseGPX(t *testing.T) {
	tracks, err := ParseGPX(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="53.0" lon="6.0"><name>ignored</name></wpt>
  <trk>
    <name> Noorderplantsoen </name>
    <trkseg>
      <trkpt lat="53.2240" lon="6.5580"><ele>2.5</ele><time>2024-05-01T10:00:00+02:00</time></trkpt>
      <trkpt lat="53.2245" lon="6.5590"><ele>n/a</ele><time>yesterday</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="53.2250" lon="6.5600"/>
    </trkseg>
  </trk>
  <trk>
    <trkseg/>
  </trk>
</gpx>`))
	test.Error(t, err)
	test.T(t, len(tracks), 2)

	track := tracks[0]
	test.T(t, track.Name, "Noorderplantsoen")
	test.T(t, len(track.Segments), 2)
	test.T(t, len(track.Segments[0].Points), 2)
	test.T(t, len(track.Segments[1].Points), 1)

	pt := track.Segments[0].Points[0]
	test.Float(t, pt.Lat, 53.2240)
	test.Float(t, pt.Lon, 6.5580)
	test.That(t, pt.Ele != nil, "elevation is set")
	test.Float(t, *pt.Ele, 2.5)
	test.That(t, pt.Time != nil, "time is set")
	test.That(t, pt.Time.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)), "time:", pt.Time)
	test.T(t, pt.Time.Location(), time.UTC)

	pt = track.Segments[0].Points[1]
	test.That(t, pt.Ele == nil, "invalid elevation is ignored")
	test.That(t, pt.Time == nil, "invalid time is ignored")

	test.T(t, tracks[1].Name, "")
	test.T(t, len(tracks[1].Segments), 1)
	test.T(t, len(tracks[1].Segments[0].Points), 0)
}

func TestParseGPXErrors(t *testing.T) {
	_, err := ParseGPX(strings.NewReader(`<gpx><trk><trkseg><trkpt lat="95" lon="6"/></trkseg></trk></gpx>`))
	var coordErr *ErrInvalidCoordinate
	test.That(t, errors.As(err, &coordErr), "expected invalid coordinate error:", err)

	_, err = ParseGPX(strings.NewReader(`<gpx><trk><trkseg><trkpt lon="6"/></trkseg></trk></gpx>`))
	var missingErr *ErrMissingField
	test.That(t, errors.As(err, &missingErr), "expected missing field error:", err)
	test.T(t, missingErr.Field, "lat")

	_, err = ParseGPX(strings.NewReader(`<gpx><trk><trkseg><trkpt lat="53" lon="east"/></trkseg></trk></gpx>`))
	var formatErr *ErrInvalidFormat
	test.That(t, errors.As(err, &formatErr), "expected invalid format error:", err)
	test.T(t, formatErr.Field, "lon")

	_, err = ParseGPX(strings.NewReader(`<gpx><trk><name>x</trk></gpx>`))
	var xmlErr *ErrXML
	test.That(t, errors.As(err, &xmlErr), "expected XML error:", err)
}

func TestAddTrack(t *testing.T) {
	data := NewMapData()
	data.AddNode(Node{ID: 1, Lat: 53.0, Lon: 6.0})
	data.AddTrack(GpxTrack{
		Segments: []GpxSegment{{Points: []GpxPoint{{Lat: 52.0, Lon: 7.0}}}},
	})
	test.T(t, len(data.Tracks), 1)
	test.T(t, data.Bounds, Bounds{MinLat: 52.0, MaxLat: 53.0, MinLon: 6.0, MaxLon: 7.0})
}
