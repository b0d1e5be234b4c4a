// Package leasearea extracts offshore wind lease area boundary polygons
// from BOEM KML documents.
//
// Each KML Placemark represents one lease area, keyed by its <name>
// element (typically the leaseholder). A placemark carries an outer
// boundary ring and optionally an inner ring describing a hole. When a
// placemark defines several outer rings (multi-part boundaries), all
// ring coordinates are concatenated in document order into a single
// list; callers needing per-ring structure must re-split downstream.
package leasearea

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// kmlNamespace is the OGC KML 2.2 namespace used by BOEM exports.
const kmlNamespace = "http://www.opengis.net/kml/2.2"

// Coordinate is a WGS-84 longitude/latitude pair. Longitude comes first
// to match KML coordinate order; negative longitude is west.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Polygon holds the boundary rings of one lease area. Inner is empty,
// never nil, when the area has no hole.
type Polygon struct {
	Outer []Coordinate `json:"outer"`
	Inner []Coordinate `json:"inner"`
}

// PolygonSet maps lease area names to their boundary polygons.
type PolygonSet map[string]Polygon

var (
	// ErrParse indicates the document is missing, unreadable, or not
	// well-formed XML.
	ErrParse = errors.New("lease area document not well-formed")

	// ErrSchema indicates a placemark lacks a required element
	// (a name, or any outer boundary coordinates).
	ErrSchema = errors.New("lease area placemark missing required element")

	// ErrCoordinate indicates a coordinate token did not parse as at
	// least two floats.
	ErrCoordinate = errors.New("malformed lease area coordinate")
)

// ExtractFile reads and extracts lease area polygons from the KML file
// at path.
func ExtractFile(path string) (PolygonSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lease area document: %w", err)
	}
	defer f.Close()

	set, err := Extract(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Extract parses a KML document and returns the polygon set. Extraction
// is a pure function of the document: the same input always yields the
// same output. Any schema or coordinate problem aborts the whole
// extraction rather than returning partial data.
func Extract(r io.Reader) (PolygonSet, error) {
	dec := xml.NewDecoder(r)
	set := PolygonSet{}

	// Scan the token stream for Placemark elements so that arbitrary
	// Folder/Document nesting is handled without modelling it.
	index := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" || start.Name.Space != kmlNamespace {
			continue
		}

		var pm placemark
		if err := dec.DecodeElement(&pm, &start); err != nil {
			return nil, fmt.Errorf("%w: placemark %d: %v", ErrParse, index, err)
		}

		name := strings.TrimSpace(pm.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: placemark %d has no name", ErrSchema, index)
		}

		poly, err := pm.polygon()
		if err != nil {
			return nil, fmt.Errorf("placemark %d (%s): %w", index, name, err)
		}
		if len(poly.Outer) == 0 {
			return nil, fmt.Errorf("%w: placemark %d (%s) has no outer boundary coordinates", ErrSchema, index, name)
		}

		set[name] = poly
		index++
	}

	return set, nil
}

// KML structure of one placemark. Polygons may sit directly under the
// placemark or inside a MultiGeometry; rings appear in document order
// within each slice.
type placemark struct {
	Name          string       `xml:"name"`
	Polygons      []kmlPolygon `xml:"Polygon"`
	MultiPolygons []kmlPolygon `xml:"MultiGeometry>Polygon"`
}

type kmlPolygon struct {
	OuterRings []string `xml:"outerBoundaryIs>LinearRing>coordinates"`
	InnerRings []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

// polygon flattens the placemark's rings into a Polygon, concatenating
// multiple rings of the same kind in document order.
func (pm placemark) polygon() (Polygon, error) {
	poly := Polygon{Outer: []Coordinate{}, Inner: []Coordinate{}}

	for _, kp := range append(pm.Polygons, pm.MultiPolygons...) {
		for _, ring := range kp.OuterRings {
			coords, err := parseCoordinates(ring)
			if err != nil {
				return Polygon{}, fmt.Errorf("outer ring: %w", err)
			}
			poly.Outer = append(poly.Outer, coords...)
		}
		for _, ring := range kp.InnerRings {
			coords, err := parseCoordinates(ring)
			if err != nil {
				return Polygon{}, fmt.Errorf("inner ring: %w", err)
			}
			poly.Inner = append(poly.Inner, coords...)
		}
	}

	return poly, nil
}

// parseCoordinates parses KML coordinate text: whitespace-separated
// tokens, each a comma-separated "lon,lat[,alt]" triple. Altitude is
// ignored. Token order is preserved; it defines the ring winding.
func parseCoordinates(text string) ([]Coordinate, error) {
	tokens := strings.Fields(text)
	coords := make([]Coordinate, 0, len(tokens))

	for i, token := range tokens {
		fields := strings.Split(token, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: token %d %q has %d comma-separated fields, want at least 2",
				ErrCoordinate, i, token, len(fields))
		}

		lon, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q: longitude: %v", ErrCoordinate, i, token, err)
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q: latitude: %v", ErrCoordinate, i, token, err)
		}

		coords = append(coords, Coordinate{Lon: lon, Lat: lat})
	}

	return coords, nil
}
