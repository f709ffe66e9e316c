// Package cli implements the telegram_parser CLI commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/batch"
	"telegram_parser/internal/extractors"
	"telegram_parser/internal/geo"
	"telegram_parser/internal/storage"
)

var (
	regionsPath string
	dbFile      string
	natsURL     string
	workers     int
	timeoutSec  int
	cacheSize   int
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "telegram_parser",
	Short: "Parse UAV flight telegrams and assemble flight records",
	Long:  "Parses FPL/DEP/ARR and related UAV telegram batches, geocodes coordinates to regions and assembles per-flight records.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&regionsPath, "regions", "r", "", "Region boundaries GeoJSON file (default: $UAV_REGIONS)")
	RootCmd.PersistentFlags().StringVarP(&dbFile, "db", "d", "", "SQLite archive path (default: $UAV_DB, empty disables persistence)")
	RootCmd.PersistentFlags().StringVar(&natsURL, "nats", "", "NATS server URL (default: $UAV_NATS, empty disables publishing)")
	RootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 4, "Batch worker pool size")
	RootCmd.PersistentFlags().IntVarP(&timeoutSec, "timeout", "t", 60, "Batch timeout in seconds")
	RootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", geo.DefaultCacheSize, "Geocoding LRU cache size")
}

func getRegionsPath() string {
	if regionsPath != "" {
		return regionsPath
	}
	return os.Getenv("UAV_REGIONS")
}

func getDBFile() string {
	if dbFile != "" {
		return dbFile
	}
	return os.Getenv("UAV_DB")
}

func getNATSURL() string {
	if natsURL != "" {
		return natsURL
	}
	return os.Getenv("UAV_NATS")
}

// loadRegionIndex builds the region index from the configured GeoJSON
// file. Without a file the index is empty and geocoding yields no region.
func loadRegionIndex() (*geo.RegionIndex, error) {
	index := geo.NewRegionIndex()
	path := getRegionsPath()
	if path == "" {
		return index, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	regions, err := geo.RegionsFromGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat regions: %w", err)
	}
	version := fmt.Sprintf("%s@%d", path, info.ModTime().Unix())
	index.Reload(regions, version)
	return index, nil
}

// pipeline bundles the wired processing components for one CLI run.
type pipeline struct {
	index    *geo.RegionIndex
	cache    *geo.GeocodeCache
	registry *extractors.Registry
	asm      *assembler.Assembler
	proc     *batch.Processor
}

func newPipeline() (*pipeline, error) {
	index, err := loadRegionIndex()
	if err != nil {
		return nil, err
	}
	cache, err := geo.NewGeocodeCache(index, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}
	registry := extractors.NewRegistry(cache)
	asm := assembler.New()
	proc := batch.New(batch.Config{
		Workers: workers,
		Timeout: time.Duration(timeoutSec) * time.Second,
	}, registry, asm)

	return &pipeline{
		index:    index,
		cache:    cache,
		registry: registry,
		asm:      asm,
		proc:     proc,
	}, nil
}

func openLocal() (*storage.LocalDB, error) {
	path := getDBFile()
	if path == "" {
		return nil, nil
	}
	return storage.OpenLocal(path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
