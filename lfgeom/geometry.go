// Package lfgeom catalogs named reference device geometries — the
// read/program/block sizes, cache and lookahead sizes, and block-cycle
// wear-leveling hints of real and commonly-emulated storage media — so
// callers and tests can reach for "nor-4k" instead of hand-rolling a
// [lfblock.StreamDeviceConfig]. The table is embedded at build time and
// loaded with gocsv, the same approach the teacher's disks package uses for
// its physical-disk geometry catalog.
package lfgeom

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/dargueta/littlefs/lfblock"
)

//go:embed geometries.csv
var rawCSV string

// Geometry is one catalog row. Fields mirror the declared device constants
// of spec §6.1.
type Geometry struct {
	Slug          string `csv:"slug"`
	Name          string `csv:"name"`
	ReadSize      uint   `csv:"read_size"`
	ProgramSize   uint   `csv:"program_size"`
	BlockSize     uint   `csv:"block_size"`
	BlockCount    uint   `csv:"block_count"`
	CacheSize     uint   `csv:"cache_size"`
	LookaheadSize uint   `csv:"lookahead_size"`
	BlockCycles   int    `csv:"block_cycles"`
	Notes         string `csv:"notes"`
}

// Config returns the [lfblock.StreamDeviceConfig] this catalog row describes.
func (g Geometry) Config() lfblock.StreamDeviceConfig {
	return lfblock.StreamDeviceConfig{
		ReadSize:      g.ReadSize,
		ProgramSize:   g.ProgramSize,
		BlockSize:     g.BlockSize,
		BlockCount:    g.BlockCount,
		CacheSize:     g.CacheSize,
		LookaheadSize: g.LookaheadSize,
		BlockCycles:   g.BlockCycles,
	}
}

var geometries map[string]Geometry

func init() {
	geometries = make(map[string]Geometry)
	err := gocsv.UnmarshalToCallback(strings.NewReader(rawCSV), func(row Geometry) error {
		if _, exists := geometries[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry slug %q", row.Slug)
		}
		geometries[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns the named geometry, or an error if no such slug is
// cataloged.
func Lookup(slug string) (Geometry, error) {
	g, ok := geometries[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined geometry named %q", slug)
	}
	return g, nil
}

// Slugs returns every cataloged geometry's slug, for listing in help text.
func Slugs() []string {
	out := make([]string, 0, len(geometries))
	for slug := range geometries {
		out = append(out, slug)
	}
	return out
}
