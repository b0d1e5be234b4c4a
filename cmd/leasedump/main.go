// Command leasedump extracts lease-area polygons from a KML export and
// writes them as a JSON fixture, so test suites and downstream tools can
// consume the boundaries without parsing KML.
//
// Usage:
//
//	go run ./cmd/leasedump -kml data/lease_areas.kml -out data/mock/lease_areas.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/seabright/wrf-wind-maps/internal/leasearea"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	kmlPath := flag.String("kml", "", "path to the lease-area KML export")
	outPath := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *kmlPath == "" || *outPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -kml, -out")
	}

	areas, err := leasearea.ExtractFile(*kmlPath)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", *kmlPath, err)
	}
	if len(areas) == 0 {
		return fmt.Errorf("%s contains no placemarks", *kmlPath)
	}

	if err := writeJSON(*outPath, areas); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d lease areas: %s", len(areas), *outPath)

	printStats(areas)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(areas leasearea.PolygonSet) {
	names := make([]string, 0, len(areas))
	for name := range areas {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\n=== Lease area summary ===")
	for _, name := range names {
		poly := areas[name]
		minLon, maxLon := poly.Outer[0].Lon, poly.Outer[0].Lon
		minLat, maxLat := poly.Outer[0].Lat, poly.Outer[0].Lat
		for _, c := range poly.Outer {
			if c.Lon < minLon {
				minLon = c.Lon
			}
			if c.Lon > maxLon {
				maxLon = c.Lon
			}
			if c.Lat < minLat {
				minLat = c.Lat
			}
			if c.Lat > maxLat {
				maxLat = c.Lat
			}
		}
		fmt.Printf("  %-30s outer=%d inner=%d lon=[%.3f, %.3f] lat=[%.3f, %.3f]\n",
			name, len(poly.Outer), len(poly.Inner), minLon, maxLon, minLat, maxLat)
	}
}
