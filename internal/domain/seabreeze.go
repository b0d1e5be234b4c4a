package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// LoadSeabreezeDays reads a radar seabreeze classification CSV and
// returns the days flagged as seabreeze days. The CSV has a header row
// with at least "Date" and "Seabreeze" columns; rows whose Seabreeze
// cell is "y" (case-insensitive) are kept. Dates parse as YYYY-MM-DD or
// M/D/YYYY.
func LoadSeabreezeDays(r io.Reader) ([]time.Time, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read seabreeze CSV header: %w", err)
	}

	dateCol, flagCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "seabreeze":
			flagCol = i
		}
	}
	if dateCol < 0 || flagCol < 0 {
		return nil, fmt.Errorf("seabreeze CSV header %v missing Date or Seabreeze column", header)
	}

	var days []time.Time
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read seabreeze CSV line %d: %w", line, err)
		}
		if !strings.EqualFold(strings.TrimSpace(rec[flagCol]), "y") {
			continue
		}

		day, err := parseDay(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("seabreeze CSV line %d: %w", line, err)
		}
		days = append(days, day)
	}
	return days, nil
}

func parseDay(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "1/2/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
