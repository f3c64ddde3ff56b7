package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ryanwparks/georeach/internal/adapters/postgres"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/usecases"
	"github.com/ryanwparks/georeach/internal/pkg/config"
)

// The loader imports facilities and demand points from CSV files.
//
//	loader facilities data/stores.csv
//	loader demand data/tracts.csv census
//
// Facility CSV columns: name, category, lat, lon, capacity, required.
// Demand CSV columns: name, lat, lon, weight. The optional third
// argument sets the group name on every imported demand point.
func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: loader <facilities|demand> <file.csv> [group]")
	}
	kind := os.Args[1]
	path := os.Args[2]

	cfg, err := config.Load("georeach-loader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	start := time.Now()
	var count int

	switch kind {
	case "facilities":
		svc := usecases.NewFacilityService(postgres.NewFacilityRepo(db), nil)
		count, err = loadFacilities(ctx, svc, f)
	case "demand":
		group := ""
		if len(os.Args) > 3 {
			group = os.Args[3]
		}
		svc := usecases.NewDemandService(postgres.NewDemandRepo(db))
		count, err = loadDemandPoints(ctx, svc, f, group)
	default:
		log.Fatalf("unknown kind: %s", kind)
	}
	if err != nil {
		log.Fatalf("import %s: %v", path, err)
	}

	log.Printf("imported %d %s from %s in %s", count, kind, path, time.Since(start).Round(time.Millisecond))
}

const batchSize = 500

func loadFacilities(ctx context.Context, svc *usecases.FacilityService, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)

	var batch []domain.Facility
	total := 0
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(field(rec, col, "lat"), 64)
		if err != nil {
			return total, fmt.Errorf("line %d: bad lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(rec, col, "lon"), 64)
		if err != nil {
			return total, fmt.Errorf("line %d: bad lon: %w", line, err)
		}

		facility := domain.Facility{
			Name:     field(rec, col, "name"),
			Category: field(rec, col, "category"),
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
		}
		if v := field(rec, col, "capacity"); v != "" {
			facility.Capacity, _ = strconv.ParseFloat(v, 64)
		}
		if v := field(rec, col, "required"); v != "" {
			facility.Required, _ = strconv.ParseBool(v)
		}

		batch = append(batch, facility)
		if len(batch) >= batchSize {
			if err := svc.ImportBatch(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if err := svc.ImportBatch(ctx, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

func loadDemandPoints(ctx context.Context, svc *usecases.DemandService, r io.Reader, group string) (int, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)

	var batch []domain.DemandPoint
	total := 0
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(field(rec, col, "lat"), 64)
		if err != nil {
			return total, fmt.Errorf("line %d: bad lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(rec, col, "lon"), 64)
		if err != nil {
			return total, fmt.Errorf("line %d: bad lon: %w", line, err)
		}

		point := domain.DemandPoint{
			Name:      field(rec, col, "name"),
			Location:  domain.GeoPoint{Lat: lat, Lon: lon},
			GroupName: group,
			Weight:    1,
		}
		if v := field(rec, col, "weight"); v != "" {
			point.Weight, _ = strconv.ParseFloat(v, 64)
		}

		batch = append(batch, point)
		if len(batch) >= batchSize {
			if err := svc.ImportBatch(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if err := svc.ImportBatch(ctx, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

// columnIndex maps lowercased header names to their positions.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
