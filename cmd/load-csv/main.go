package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"phonehub/internal/catalog"
	"phonehub/internal/importer"
	"phonehub/internal/provider"
	"phonehub/pkg/config"
	"phonehub/pkg/database"
	"phonehub/pkg/logging"
)

// Loads a phones CSV through the normal reconciliation path as the "csv"
// source, so snapshot data fills gaps but never overrides a live
// provider's value.
func main() {
	var (
		in      = flag.String("in", "data/phones.csv", "input CSV path")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall load timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	raws, err := readDevices(*in, cfg.Import.Currency)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("read csv failed")
	}
	log.Info().Int("rows", len(raws)).Str("path", *in).Msg("csv parsed")

	// no providers: this run only reconciles the parsed rows
	svc := importer.New(catalog.NewRepo(db), nil, importer.Config{
		Currency: cfg.Import.Currency,
	}, nil)

	res, err := svc.LoadRaw(ctx, raws)
	if err != nil {
		log.Fatal().Err(err).Msg("load failed")
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("processed", res.Processed).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("csv load complete")
}

func readDevices(path, currency string) ([]provider.RawDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []provider.RawDevice
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		brand := valueAt(header, row, "brand")
		name := valueAt(header, row, "name")
		if brand == "" || name == "" {
			continue
		}

		raw := provider.RawDevice{
			Provider:    "csv",
			Brand:       brand,
			Name:        name,
			Processor:   valueAt(header, row, "processor"),
			RAM:         valueAt(header, row, "ram"),
			Storage:     valueAt(header, row, "storage"),
			Camera:      valueAt(header, row, "camera"),
			Battery:     valueAt(header, row, "battery"),
			Display:     valueAt(header, row, "display"),
			Image:       valueAt(header, row, "image"),
			ReleaseDate: valueAt(header, row, "release_date"),
		}
		if p := valueAt(header, row, "price"); p != "" {
			amount, err := strconv.ParseFloat(p, 64)
			if err == nil && amount > 0 {
				raw.Prices = map[string]float64{currency: amount}
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
