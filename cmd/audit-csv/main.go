package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"phonehub/internal/auditor"
	"phonehub/pkg/config"
	"phonehub/pkg/logging"
)

// Offline data-quality pass over a catalog snapshot: drops duplicate
// rows, writes the cleaned file, and prints a plausibility report.
// Flagged rows are kept; only duplicates are removed.
func main() {
	var (
		in      = flag.String("in", "data/phones.csv", "input snapshot path")
		out     = flag.String("out", "data/phones.clean.csv", "cleaned output path")
		reports = flag.String("report", "", "optional JSON report path (default: stdout only)")
	)
	flag.Parse()

	logging.Setup("info", "console")

	limits := auditor.DefaultLimits()
	if cfg, err := config.Load(); err == nil {
		limits = auditor.Limits{
			BatteryMinMAH:  cfg.Audit.BatteryMinMAH,
			BatteryMaxMAH:  cfg.Audit.BatteryMaxMAH,
			DisplayMinInch: cfg.Audit.DisplayMinInch,
			DisplayMaxInch: cfg.Audit.DisplayMaxInch,
			ChargingMaxW:   cfg.Audit.ChargingMaxW,
		}
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("open snapshot failed")
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("read snapshot failed")
	}

	kept, report, err := auditor.New(limits).Audit(rows)
	if err != nil {
		log.Fatal().Err(err).Msg("audit failed")
	}

	of, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("create output failed")
	}
	w := csv.NewWriter(of)
	if err := w.WriteAll(kept); err != nil {
		of.Close()
		log.Fatal().Err(err).Msg("write output failed")
	}
	w.Flush()
	if err := of.Close(); err != nil {
		log.Fatal().Err(err).Msg("close output failed")
	}

	log.Info().
		Int("original", report.Original).
		Int("kept", report.Kept).
		Int("removed", report.Removed).
		Int("flagged", len(report.Flags)).
		Str("out", *out).
		Msg("audit complete")
	for _, fl := range report.Flags {
		log.Warn().
			Str("brand", fl.Brand).
			Str("model", fl.Model).
			Strs("issues", fl.Issues).
			Msg("implausible row")
	}

	if *reports != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("marshal report failed")
		}
		if err := os.WriteFile(*reports, data, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", *reports).Msg("write report failed")
		}
	}
}
