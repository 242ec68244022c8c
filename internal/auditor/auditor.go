// Package auditor runs offline data-quality checks over a flat tabular
// snapshot of the catalog: exact-duplicate removal plus advisory
// plausibility heuristics. It never touches the network and never
// auto-corrects data; flags are reported, not applied.
package auditor

import (
	"fmt"
	"strconv"
	"strings"
)

// Limits are the configured plausible ranges for numeric heuristics.
type Limits struct {
	BatteryMinMAH  int
	BatteryMaxMAH  int
	DisplayMinInch float64
	DisplayMaxInch float64
	ChargingMaxW   int
}

// DefaultLimits mirror the shipped configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		BatteryMinMAH:  1000,
		BatteryMaxMAH:  7500,
		DisplayMinInch: 3.5,
		DisplayMaxInch: 8.5,
		ChargingMaxW:   300,
	}
}

// Flag is one row that violated plausibility heuristics.
type Flag struct {
	Brand  string   `json:"brand"`
	Model  string   `json:"model"`
	Issues []string `json:"issues"`
}

// Report summarizes one audit pass.
type Report struct {
	Original int    `json:"original"`
	Kept     int    `json:"kept"`
	Removed  int    `json:"removed"`
	Flags    []Flag `json:"flags,omitempty"`
}

// Auditor holds the configured limits.
type Auditor struct {
	Limits Limits
}

func New(limits Limits) *Auditor {
	return &Auditor{Limits: limits}
}

// Audit runs the duplicate pass then the plausibility pass over snapshot
// rows. The first row is the header; the first two columns are the identity
// pair for duplicate detection regardless of their names. Returns the kept
// rows (header included) and the report.
func (a *Auditor) Audit(rows [][]string) ([][]string, Report, error) {
	if len(rows) == 0 {
		return nil, Report{}, fmt.Errorf("snapshot is empty")
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, Report{}, fmt.Errorf("snapshot needs at least two columns, got %d", len(header))
	}

	kept, report := a.dedupe(rows)
	a.checkPlausibility(header, kept[1:], &report)
	return kept, report, nil
}

// dedupe keeps the first occurrence per case-insensitive (col0, col1) key.
func (a *Auditor) dedupe(rows [][]string) ([][]string, Report) {
	kept := make([][]string, 0, len(rows))
	kept = append(kept, rows[0])

	seen := make(map[string]struct{}, len(rows))
	report := Report{Original: len(rows) - 1}

	for _, row := range rows[1:] {
		if len(row) < 2 {
			report.Removed++
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0])) + "\x00" + strings.ToLower(strings.TrimSpace(row[1]))
		if _, dup := seen[key]; dup {
			report.Removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	report.Kept = len(kept) - 1
	return kept, report
}

// exclusiveSilicon maps a chipset family to the brands that actually ship it.
var exclusiveSilicon = map[string][]string{
	"bionic": {"apple"},
	"tensor": {"google"},
	"kirin":  {"huawei", "honor"},
	"exynos": {"samsung"},
}

func (a *Auditor) checkPlausibility(header []string, rows [][]string, report *Report) {
	cols := headerIndex(header)

	for _, row := range rows {
		brand := strings.ToLower(strings.TrimSpace(row[0]))
		model := strings.TrimSpace(row[1])

		var issues []string
		issues = append(issues, a.checkOS(brand, value(cols, row, "os"))...)
		issues = append(issues, a.checkProcessor(brand, firstValue(cols, row, "processor", "cpu", "chipset"))...)
		issues = append(issues, a.checkBattery(firstValue(cols, row, "battery_mah", "battery"))...)
		issues = append(issues, a.checkDisplay(firstValue(cols, row, "display_in", "display", "screen_in"))...)
		issues = append(issues, a.checkCharging(firstValue(cols, row, "charging_w", "charging"))...)

		if len(issues) > 0 {
			report.Flags = append(report.Flags, Flag{
				Brand:  strings.TrimSpace(row[0]),
				Model:  model,
				Issues: issues,
			})
		}
	}
}

func (a *Auditor) checkOS(brand, os string) []string {
	os = strings.ToLower(os)
	if os == "" {
		return nil
	}
	var issues []string
	if brand == "apple" && !strings.Contains(os, "ios") && !strings.Contains(os, "ipados") {
		issues = append(issues, fmt.Sprintf("apple device with non-iOS platform %q", os))
	}
	if brand != "apple" && strings.Contains(os, "ios") {
		issues = append(issues, fmt.Sprintf("non-apple brand %q running iOS", brand))
	}
	return issues
}

func (a *Auditor) checkProcessor(brand, processor string) []string {
	processor = strings.ToLower(processor)
	if processor == "" {
		return nil
	}
	var issues []string
	for family, brands := range exclusiveSilicon {
		if !strings.Contains(processor, family) {
			continue
		}
		if !containsBrand(brands, brand) {
			issues = append(issues, fmt.Sprintf("%s silicon declared for brand %q", family, brand))
		}
	}
	if brand == "apple" && !strings.Contains(processor, "bionic") && !strings.Contains(processor, "apple") {
		issues = append(issues, fmt.Sprintf("apple device with foreign chipset %q", processor))
	}
	return issues
}

func (a *Auditor) checkBattery(raw string) []string {
	mah, ok := parseInt(raw)
	if !ok {
		return nil
	}
	if mah < a.Limits.BatteryMinMAH || mah > a.Limits.BatteryMaxMAH {
		return []string{fmt.Sprintf("suspicious battery capacity %d mAh (plausible %d-%d)",
			mah, a.Limits.BatteryMinMAH, a.Limits.BatteryMaxMAH)}
	}
	return nil
}

func (a *Auditor) checkDisplay(raw string) []string {
	inches, ok := parseFloat(raw)
	if !ok {
		return nil
	}
	if inches < a.Limits.DisplayMinInch || inches > a.Limits.DisplayMaxInch {
		return []string{fmt.Sprintf("suspicious display size %.2f in (plausible %.1f-%.1f)",
			inches, a.Limits.DisplayMinInch, a.Limits.DisplayMaxInch)}
	}
	return nil
}

func (a *Auditor) checkCharging(raw string) []string {
	watts, ok := parseInt(raw)
	if !ok {
		return nil
	}
	if watts > a.Limits.ChargingMaxW {
		return []string{fmt.Sprintf("charging wattage %d W above ceiling %d W", watts, a.Limits.ChargingMaxW)}
	}
	return nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return idx
}

func value(cols map[string]int, row []string, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func firstValue(cols map[string]int, row []string, keys ...string) string {
	for _, k := range keys {
		if v := value(cols, row, k); v != "" {
			return v
		}
	}
	return ""
}

func containsBrand(brands []string, brand string) bool {
	for _, b := range brands {
		if b == brand {
			return true
		}
	}
	return false
}

func parseInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
