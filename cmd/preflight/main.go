// Command preflight validates a report run before it spends hours of
// rendering: environment configuration, lease-area KML, region
// definitions, the seabreeze day list, and the bucket plan for the
// requested window. It prints the plan and exits non-zero when any
// check fails.
//
// Usage:
//
//	go run ./cmd/preflight -start 20200601 -end 20200831 -report all
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/seabright/wrf-wind-maps/internal/config"
	"github.com/seabright/wrf-wind-maps/internal/daterange"
	"github.com/seabright/wrf-wind-maps/internal/domain"
	"github.com/seabright/wrf-wind-maps/internal/leasearea"
	"github.com/seabright/wrf-wind-maps/internal/region"
	"github.com/seabright/wrf-wind-maps/internal/render"
)

const dayLayout = "20060102"

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	startStr := flag.String("start", "", "first day of the window, YYYYMMDD")
	endStr := flag.String("end", "", "last day of the window, YYYYMMDD")
	interval := flag.String("interval", string(daterange.Monthly), "bucket interval")
	report := flag.String("report", "maps", "maps, hovmoller, or all")
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(*startStr, *endStr, *interval, *report); code != 0 {
		os.Exit(code)
	}
}

func run(startStr, endStr, interval, report string) int {
	_ = godotenv.Load()

	fmt.Println("=== Wind report preflight ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateInputs(cfg, report),
		validatePlan(cfg, startStr, endStr, interval, report),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nPreflight passed.")
		return 0
	}
	fmt.Println("\nPreflight FAILED.")
	return 1
}

// validateInputs checks the data files the run depends on.
func validateInputs(cfg *config.Config, report string) *phase {
	p := &phase{name: "Phase 1: Input files"}

	areas, err := leasearea.ExtractFile(cfg.LeaseAreaKML)
	switch {
	case err != nil:
		p.errorf("lease areas %s: %v", cfg.LeaseAreaKML, err)
	case len(areas) == 0:
		p.errorf("lease areas %s: no placemarks", cfg.LeaseAreaKML)
	default:
		fmt.Printf("  lease areas: %d placemarks (%s)\n", len(areas), cfg.LeaseAreaKML)
		for name, poly := range areas {
			if len(poly.Outer) < 3 {
				p.errorf("lease area %q: outer ring has %d vertices, need at least 3", name, len(poly.Outer))
			}
		}
	}

	regions, err := region.Load(cfg.RegionsFile, cfg.MapHeights)
	if err != nil {
		p.errorf("regions: %v", err)
	} else {
		src := cfg.RegionsFile
		if src == "" {
			src = "built-in defaults"
		}
		fmt.Printf("  regions: %d (%s)\n", len(regions), src)
	}

	if wantsHovmoller(report) && cfg.SeabreezeCSV != "" {
		f, err := os.Open(cfg.SeabreezeCSV)
		if err != nil {
			p.errorf("seabreeze days %s: %v", cfg.SeabreezeCSV, err)
			return p
		}
		defer f.Close()

		days, err := domain.LoadSeabreezeDays(f)
		if err != nil {
			p.errorf("seabreeze days %s: %v", cfg.SeabreezeCSV, err)
		} else {
			fmt.Printf("  seabreeze days: %d (%s)\n", len(days), cfg.SeabreezeCSV)
		}
	}

	return p
}

// validatePlan buckets the window and previews what the run would render.
func validatePlan(cfg *config.Config, startStr, endStr, interval, report string) *phase {
	p := &phase{name: "Phase 2: Bucket plan"}

	start, err := time.Parse(dayLayout, startStr)
	if err != nil {
		p.errorf("parse -start %q: %v", startStr, err)
		return p
	}
	end, err := time.Parse(dayLayout, endStr)
	if err != nil {
		p.errorf("parse -end %q: %v", endStr, err)
		return p
	}

	buckets, err := daterange.Buckets(daterange.Interval(interval), start, end)
	if err != nil {
		p.errorf("bucket window: %v", err)
		return p
	}

	regions, err := region.Load(cfg.RegionsFile, cfg.MapHeights)
	if err != nil {
		// Already reported in phase 1; the plan preview just skips maps.
		regions = nil
	}

	mapImages := 0
	if wantsMaps(report) {
		mapImages = len(buckets) * len(cfg.MapHeights) * len(regions) * len(region.Variables())
	}
	hovImages := 0
	if wantsHovmoller(report) {
		hovImages = len(buckets) * len(cfg.HovmollerHeights)
	}

	fmt.Printf("  window: %s\n", render.WindowLabel(daterange.Interval(interval), start, end))
	fmt.Printf("  buckets: %d\n", len(buckets))
	for _, b := range buckets {
		fmt.Printf("    %s .. %s\n", b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"))
	}
	fmt.Printf("  map images: %d, hovmoller images: %d\n", mapImages, hovImages)

	if mapImages+hovImages == 0 {
		p.errorf("plan renders no images (report=%q)", report)
	}
	return p
}

func wantsMaps(report string) bool      { return report == "maps" || report == "all" }
func wantsHovmoller(report string) bool { return report == "hovmoller" || report == "all" }
