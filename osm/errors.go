package osm

import (
	"fmt"
)

// ErrXML indicates malformed markup at a byte offset of the input
type ErrXML struct {
	Offset int64
	Err    error
}

func (e *ErrXML) Error() string {
	return fmt.Sprintf("xml error at offset %d: %v", e.Offset, e.Err)
}

func (e *ErrXML) Unwrap() error {
	return e.Err
}

// ErrMissingField indicates a required attribute is absent from an element
type ErrMissingField struct {
	Element string
	Field   string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("missing required field %q on %s", e.Field, e.Element)
}

// ErrInvalidFormat indicates an attribute value that cannot be parsed or is not one of the allowed values
type ErrInvalidFormat struct {
	Element string
	Field   string
	Value   string
	Err     error
}

func (e *ErrInvalidFormat) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q on %s: %v", e.Field, e.Value, e.Element, e.Err)
	}
	return fmt.Sprintf("invalid %s %q on %s", e.Field, e.Value, e.Element)
}

func (e *ErrInvalidFormat) Unwrap() error {
	return e.Err
}

// ErrInvalidCoordinate indicates coordinate out of valid bounds
type ErrInvalidCoordinate struct {
	ID       int64
	Lat, Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate for %d: lat=%f lon=%f (lat must be ±90, lon must be ±180)", e.ID, e.Lat, e.Lon)
}

// validCoordinate also rejects NaN.
func validCoordinate(lat, lon float64) bool {
	return -90.0 <= lat && lat <= 90.0 && -180.0 <= lon && lon <= 180.0
}
