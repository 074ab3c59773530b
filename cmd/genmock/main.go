// Command genmock writes synthetic sea-ice input binaries for local runs and
// demos. Each file is a zeroed 300-byte header followed by one byte per grid
// cell, named the way the pipeline searches for them.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/binaries \
//	  -start 20240105 -end 20240107 \
//	  -hemisphere both -pattern gradient
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
)

const dateLayout = "20060102"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write binaries into")
	start := flag.String("start", "", "first date, YYYYMMDD")
	end := flag.String("end", "", "last date, YYYYMMDD (default start)")
	hemisphere := flag.String("hemisphere", "both", "north, south or both")
	pattern := flag.String("pattern", "constant", "payload pattern: constant or gradient")
	value := flag.Uint("value", 125, "sample value for the constant pattern (0-255)")
	flag.Parse()

	if *out == "" || *start == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -start")
	}
	if *value > 255 {
		return fmt.Errorf("-value must be at most 255, got %d", *value)
	}

	first, err := time.Parse(dateLayout, *start)
	if err != nil {
		return fmt.Errorf("invalid -start %q", *start)
	}
	last := first
	if *end != "" {
		if last, err = time.Parse(dateLayout, *end); err != nil {
			return fmt.Errorf("invalid -end %q", *end)
		}
	}

	hemispheres := domain.Hemispheres()
	if *hemisphere != "both" {
		h, err := domain.ParseHemisphere(*hemisphere)
		if err != nil {
			return err
		}
		hemispheres = []domain.Hemisphere{h}
	}

	jobs, err := domain.JobsForRange(first, last, hemispheres)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for _, job := range jobs {
		spec, err := domain.SpecFor(job.Hemisphere)
		if err != nil {
			return err
		}
		payload, err := synthesize(spec, *pattern, byte(*value))
		if err != nil {
			return err
		}
		path := filepath.Join(*out, domain.BinaryFilename(job.Date, job.Hemisphere))
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(payload))
	}
	return nil
}

// synthesize builds a complete input file for spec. The gradient pattern
// ramps from 0 at the top row to 250 at the bottom row.
func synthesize(spec domain.HemisphereGridSpec, pattern string, value byte) ([]byte, error) {
	header := make([]byte, domain.HeaderSize)

	switch pattern {
	case "constant":
		return append(header, bytes.Repeat([]byte{value}, spec.Cells())...), nil
	case "gradient":
		cells := make([]byte, 0, spec.Cells())
		for row := range spec.Height {
			v := byte(row * 250 / max(spec.Height-1, 1))
			cells = append(cells, bytes.Repeat([]byte{v}, spec.Width)...)
		}
		return append(header, cells...), nil
	}
	return nil, fmt.Errorf("unknown pattern %q", pattern)
}
