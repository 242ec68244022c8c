package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"phonehub/pkg/config"
	"phonehub/pkg/database"
	"phonehub/pkg/logging"
)

// Dumps the catalog to CSV snapshots. The phones file leads with the
// (brand, name) pair so audit-csv can use it for duplicate detection,
// and load-csv can round-trip it.
func main() {
	var (
		phonesOut = flag.String("phones", "data/phones.csv", "output CSV path for phones")
		brandsOut = flag.String("brands", "data/brands.csv", "output CSV path for brands")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	if err := exportPhones(ctx, db, *phonesOut); err != nil {
		log.Fatal().Err(err).Msg("export phones failed")
	}
	if err := exportBrands(ctx, db, *brandsOut); err != nil {
		log.Fatal().Err(err).Msg("export brands failed")
	}

	log.Info().Str("phones", *phonesOut).Str("brands", *brandsOut).Msg("export complete")
}

func exportPhones(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"brand", "name", "price", "ram", "storage", "camera",
		"battery", "display", "processor", "image", "release_date",
	}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT brand, name, price, ram, storage, camera, battery, display,
               processor, images, release_date
        FROM devices
        ORDER BY brand, name
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			brand, name string
			price       float64
			ram         sql.NullString
			storage     sql.NullString
			camera      sql.NullString
			battery     sql.NullString
			display     sql.NullString
			processor   sql.NullString
			images      sql.NullString
			releaseDate sql.NullString
		)
		if err := rows.Scan(&brand, &name, &price, &ram, &storage, &camera,
			&battery, &display, &processor, &images, &releaseDate); err != nil {
			return err
		}

		priceStr := ""
		if price > 0 {
			priceStr = strconv.FormatFloat(price, 'f', 2, 64)
		}

		if err := w.Write([]string{
			brand,
			name,
			priceStr,
			ram.String,
			storage.String,
			camera.String,
			battery.String,
			display.String,
			processor.String,
			firstImage(images.String),
			releaseDate.String,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportBrands(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"slug", "name", "visible", "phone_count"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT slug, name, visible, phone_count
        FROM brands
        ORDER BY name
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slug, name string
			visible    bool
			count      int
		)
		if err := rows.Scan(&slug, &name, &visible, &count); err != nil {
			return err
		}
		if err := w.Write([]string{
			slug,
			name,
			strconv.FormatBool(visible),
			strconv.Itoa(count),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// firstImage pulls the primary URL out of the stored JSON array without
// caring about the rest of it.
func firstImage(raw string) string {
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil || len(urls) == 0 {
		return ""
	}
	return urls[0]
}
